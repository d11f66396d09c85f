package video

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// Decoder turns one payload into a raster image.
type Decoder interface {
	Decode(payload []byte) (image.Image, error)
}

// ImageDecoder decodes any format registered with the image package (JPEG and
// PNG are linked in).
type ImageDecoder struct{}

func (ImageDecoder) Decode(payload []byte) (image.Image, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeFailure)
	}
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	return img, nil
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload []byte) (image.Image, error)

func (f DecoderFunc) Decode(payload []byte) (image.Image, error) {
	return f(payload)
}
