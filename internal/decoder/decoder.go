// Package decoder wraps barcode recognition libraries behind the [Decoder] interface.
//
// Engines:
//   - [ZXing] : 1D retail and industrial symbologies plus QR via gozxing
//   - [QR] : QR only via goqr
//   - [Chain] : tries several engines in order
//
// A decoder reports zero or more candidates in the order its library found them.
// Callers that need a single payload use the first candidate; decoders do not rank results.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

// Engine names accepted by [New].
const (
	EngineZXing = "zxing"
	EngineQR    = "qr"
)

// Decoder recognizes barcodes in an upright image.
type Decoder interface {
	// Decode returns every barcode found. A nil slice with a nil error means nothing was found.
	Decode(ctx context.Context, img image.Image) ([]models.Candidate, error)

	// Name returns the engine name.
	Name() string
}

// New builds a decoder trying the named engines in order.
func New(engines []string) (Decoder, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("%w: no engines configured", shared.ErrUnknownDecoder)
	}

	decoders := make([]Decoder, 0, len(engines))
	for _, name := range engines {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case EngineZXing:
			decoders = append(decoders, NewZXing())
		case EngineQR:
			decoders = append(decoders, NewQR())
		default:
			return nil, fmt.Errorf("%w: %q", shared.ErrUnknownDecoder, name)
		}
	}

	if len(decoders) == 1 {
		return decoders[0], nil
	}
	return NewChain(decoders...), nil
}

// Chain returns the candidates of the first decoder that finds any.
type Chain struct {
	decoders []Decoder
}

// NewChain creates a [Chain] over decoders.
func NewChain(decoders ...Decoder) *Chain {
	return &Chain{decoders: decoders}
}

// Decode tries each decoder in order.
//
// It fails only when every decoder failed; a decoder that ran cleanly but found nothing makes the result empty instead.
func (c *Chain) Decode(ctx context.Context, img image.Image) ([]models.Candidate, error) {
	var errs []error
	for _, d := range c.decoders {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, err)
		}

		candidates, err := d.Decode(ctx, img)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}

	if len(errs) > 0 && len(errs) == len(c.decoders) {
		return nil, fmt.Errorf("%w: %w", shared.ErrDecodeFailed, errors.Join(errs...))
	}
	return nil, nil
}

func (c *Chain) Name() string {
	names := make([]string, len(c.decoders))
	for i, d := range c.decoders {
		names[i] = d.Name()
	}
	return strings.Join(names, "+")
}
