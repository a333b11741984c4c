package codec

import (
	"bytes"
	"image"
	"image/jpeg"
)

const DefaultQuality = 75

type JPEGEncoder struct {
	Codec
	Quality int
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	options := &jpeg.Options{Quality: e.Quality}
	if options.Quality <= 0 || options.Quality > 100 {
		options.Quality = DefaultQuality
	}

	buffer := bytes.NewBuffer(nil)
	err := jpeg.Encode(buffer, img, options)
	if err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func (e *JPEGEncoder) ContentType() string {
	return "image/jpeg"
}
