package video

import (
	"image"
	"image/draw"
)

// ToRGBA returns a copy of the frame's pixels that the caller owns.
func ToRGBA(frame Frame) (*image.RGBA, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return rgba, nil
}
