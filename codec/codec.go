package codec

import (
	"image"
)

type Codec interface {
	Encode(img image.Image) ([]byte, error)
	ContentType() string
}
