package decoder

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// ZXing decodes UPC/EAN, Code 128, Code 39, and QR symbols with gozxing.
//
// Readers run in that fixed order and each contributes at most one candidate.
type ZXing struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXing creates a [ZXing] decoder that spends extra effort on hard images.
func NewZXing() *ZXing {
	return &ZXing{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

// readers are created per call since gozxing readers keep state between decodes.
func (z *ZXing) readers() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(z.hints),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		qrcode.NewQRCodeReader(),
	}
}

func (z *ZXing) Decode(ctx context.Context, img image.Image) (candidates []models.Candidate, err error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", shared.ErrDecodeFailed)
	}

	defer func() {
		if r := recover(); r != nil {
			candidates, err = nil, fmt.Errorf("%w: zxing panic: %v", shared.ErrDecodeFailed, r)
		}
	}()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, err)
	}

	for _, reader := range z.readers() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, err)
		}

		result, err := reader.Decode(bmp, z.hints)
		if err != nil {
			if isMiss(err) {
				continue
			}
			return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, err)
		}

		candidates = append(candidates, models.Candidate{
			Text:   result.GetText(),
			Format: result.GetBarcodeFormat().String(),
		})
	}

	return candidates, nil
}

func (z *ZXing) Name() string { return EngineZXing }

// isMiss reports whether err only means the reader saw no symbol of its kind.
func isMiss(err error) bool {
	var (
		notFound gozxing.NotFoundException
		checksum gozxing.ChecksumException
		format   gozxing.FormatException
	)
	return errors.As(err, &notFound) || errors.As(err, &checksum) || errors.As(err, &format)
}
