package tasks

import (
	"time"

	"github.com/desertthunder/barcod/internal/models"
)

// Fixed status messages shown to the user.
const (
	StatusDefault        = "Barcode Info"
	StatusNoBarcode      = "No barcode detected. Please try again."
	StatusInvalidBarcode = "No valid information found on the barcode."
	StatusDecodeError    = "An error occurred during barcode scanning. Please try again."
	StatusNoProductInfo  = "No product information found."
	StatusLookupError    = "An error occurred while retrieving product information."

	// ProductPageLabel is the text of the affordance that opens the product page.
	ProductPageLabel = "Click for product page"
)

// BarcodeStatus is shown once a payload is decoded, before the lookup starts.
func BarcodeStatus(payload string) string { return StatusDefault + ": " + payload }

// ResultStatus is shown when the lookup found a snippet.
func ResultStatus(snippet string) string { return "Search result: " + snippet }

// Pipeline phase enumeration
type Phase int

const (
	Idle Phase = iota
	Capturing
	Decoding
	LookingUp
	Displaying
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Decoding:
		return "decoding"
	case LookingUp:
		return "looking_up"
	case Displaying:
		return "displaying"
	default:
		return ""
	}
}

// InFlight reports whether a run is executing in this phase.
func (p Phase) InFlight() bool {
	return p == Capturing || p == Decoding || p == LookingUp
}

// State is an immutable snapshot of the scan session.
//
// The controller replaces it wholesale on every transition. ProductURL is only set when Outcome is
// [models.OutcomeLookupFound].
type State struct {
	Phase      Phase          `json:"phase"`
	Status     string         `json:"status"`
	Barcode    string         `json:"barcode,omitempty"`
	Format     string         `json:"format,omitempty"`
	Snippet    string         `json:"snippet,omitempty"`
	ProductURL string         `json:"product_url,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Outcome    models.Outcome `json:"outcome,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// HasProductPage reports whether the product page affordance should be shown.
func (s State) HasProductPage() bool {
	return s.ProductURL != ""
}

// Done reports whether s is the terminal state of run runID.
func (s State) Done(runID string) bool {
	return s.RunID == runID && s.Outcome.Terminal()
}

func idleState() State {
	return State{Phase: Idle, Status: StatusDefault, UpdatedAt: time.Now()}
}

// terminalState builds the state that ends a run with outcome.
func terminalState(prev State, outcome models.Outcome, result models.LookupResult) State {
	next := State{
		RunID:     prev.RunID,
		Barcode:   prev.Barcode,
		Format:    prev.Format,
		Outcome:   outcome,
		UpdatedAt: time.Now(),
	}

	switch outcome {
	case models.OutcomeCaptureFailure, models.OutcomeDecodeEmpty:
		next.Phase, next.Status = Idle, StatusNoBarcode
	case models.OutcomeDecodeInvalid:
		next.Phase, next.Status = Idle, StatusInvalidBarcode
	case models.OutcomeDecodeFailure:
		next.Phase, next.Status = Idle, StatusDecodeError
	case models.OutcomeLookupFound:
		next.Phase, next.Status = Displaying, ResultStatus(result.Snippet)
		next.Snippet, next.ProductURL = result.Snippet, result.URL
	case models.OutcomeLookupEmpty:
		next.Phase, next.Status = Displaying, StatusNoProductInfo
	case models.OutcomeLookupException:
		next.Phase, next.Status = Displaying, StatusLookupError
	}
	return next
}
