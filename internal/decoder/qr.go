package decoder

import (
	"context"
	"fmt"
	"image"

	"github.com/liyue201/goqr"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// QRFormat is the format reported for goqr results.
const QRFormat = "QR_CODE"

// QR decodes QR codes with goqr, which finds every code in the image.
type QR struct{}

func NewQR() *QR { return &QR{} }

// Decode returns all recognized payloads. goqr reports "nothing found" as an error, so any error yields no candidates.
func (q *QR) Decode(ctx context.Context, img image.Image) (candidates []models.Candidate, err error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", shared.ErrDecodeFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, err)
	}

	defer func() {
		if r := recover(); r != nil {
			candidates, err = nil, fmt.Errorf("%w: goqr panic: %v", shared.ErrDecodeFailed, r)
		}
	}()

	codes, err := goqr.Recognize(img)
	if err != nil {
		return nil, nil
	}

	for _, code := range codes {
		candidates = append(candidates, models.Candidate{Text: string(code.Payload), Format: QRFormat})
	}
	return candidates, nil
}

func (q *QR) Name() string { return EngineQR }
