package testing

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/desertthunder/barcod/internal/models"
)

// EAN13Image renders an EAN-13 symbol for the given 13 digits.
func EAN13Image(t *testing.T, digits string) image.Image {
	t.Helper()
	matrix, err := oned.NewEAN13Writer().Encode(digits, gozxing.BarcodeFormat_EAN_13, 300, 120, nil)
	if err != nil {
		t.Fatalf("failed to encode EAN-13 %q: %v", digits, err)
	}
	return toGray(matrix)
}

// QRImage renders a QR symbol for text.
func QRImage(t *testing.T, text string) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	if err != nil {
		t.Fatalf("failed to encode QR %q: %v", text, err)
	}
	return toGray(matrix)
}

// BlankImage returns a white w×h image.
func BlankImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// PNGFrame encodes img as a PNG frame with the given rotation.
func PNGFrame(t *testing.T, img image.Image, rotation float64) *models.Frame {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return &models.Frame{Data: buf.Bytes(), Rotation: rotation, Source: "fixture"}
}

// WritePNG encodes img to path.
func WritePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func toGray(src image.Image) *image.Gray {
	dst := image.NewGray(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
