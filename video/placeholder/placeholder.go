package placeholder

import (
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"image"
	"image/color"
	"sync"
	"time"
)

var (
	font     *truetype.Font
	fontErr  error
	fontOnce sync.Once
)

func getFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		font, fontErr = truetype.Parse(goregular.TTF)
	})
	return font, fontErr
}

// CreatePlaceholder
// render text centered on a solid background
func CreatePlaceholder(
	width, height int,
	backgroundColor, color color.Color,
	text string,
	timestamp bool, // put current time in YYYY-MM-dd HH:mm:ss.SSS pattern at the right bottom corner
) (image.Image, error) {
	f, err := getFont()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(height) / 6}))

	dc.SetColor(color)
	dc.DrawStringAnchored(text, float64(width/2), float64(height/2), 0.5, 0.5)

	if timestamp {
		nowStr := time.Now().Format("2006-01-02 15:04:05.000")
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(height) / 20}))
		dc.DrawStringAnchored(nowStr, float64(width-height/20), float64(height-height/20), 1, 0)
	}

	return dc.Image(), nil
}
