package comicsource

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders back both measurement and LoadImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Measurer reports the pixel dimensions of encoded image bytes. It is
// used only to measure, never to render.
type Measurer interface {
	Measure(data []byte) (Dimensions, error)
}

// StdMeasurer measures through the standard image.DecodeConfig path,
// covering JPEG, PNG, GIF, WebP, BMP, and TIFF.
type StdMeasurer struct{}

// Measure decodes only the image header.
func (StdMeasurer) Measure(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("measure image: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// decodeImage fully decodes encoded image bytes.
func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
