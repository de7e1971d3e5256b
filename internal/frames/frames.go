// Package frames turns captured camera frames into upright images ready for barcode recognition.
package frames

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// Normalize decodes the frame's image bytes and rotates the result clockwise by the frame's rotation.
//
// EXIF orientation tags are ignored; the frame's rotation metadata is the only correction applied.
func Normalize(frame *models.Frame) (image.Image, error) {
	if frame == nil {
		return nil, shared.ErrNoFrame
	}
	if len(frame.Data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", shared.ErrUndecodableFrame)
	}

	img, err := imaging.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrUndecodableFrame, err)
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", shared.ErrUndecodableFrame)
	}

	return Rotate(img, frame.Rotation), nil
}

// Rotate returns img rotated clockwise by degrees.
//
// Multiples of 90 are lossless. Other angles grow the canvas to fit and fill the corners with transparent pixels.
func Rotate(img image.Image, degrees float64) image.Image {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return imaging.Clone(img)
	}
	// imaging rotates counter-clockwise
	return imaging.Rotate(img, -degrees, color.Transparent)
}
