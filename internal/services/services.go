// package services defines the product lookup client used by the scan pipeline
package services

import (
	"context"

	"github.com/desertthunder/barcod/internal/models"
)

// ProductLookup resolves a decoded barcode to product information.
type ProductLookup interface {
	// Lookup performs exactly one search for barcode.
	// An empty [models.LookupResult] with a nil error means the search ran but found nothing.
	Lookup(ctx context.Context, barcode string) (models.LookupResult, error)

	// QueryURL returns the page Lookup would fetch for barcode.
	QueryURL(barcode string) string
}
