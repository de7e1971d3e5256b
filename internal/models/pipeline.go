package models

import (
	"fmt"
	"time"
)

// Frame is one captured camera image before normalization.
//
// Rotation is the clockwise rotation in degrees needed to make the image upright.
type Frame struct {
	Data       []byte
	Rotation   float64
	CapturedAt time.Time
	Source     string
}

// Candidate is a decoded barcode payload.
type Candidate struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// LookupResult holds what the product search produced for a barcode.
//
// URL is only set when Snippet is non-empty.
type LookupResult struct {
	Snippet    string    `json:"snippet"`
	URL        string    `json:"url,omitempty"`
	Headings   []string  `json:"headings,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Found reports whether the lookup produced a snippet.
func (r LookupResult) Found() bool {
	return r.Snippet != ""
}

// Outcome is the terminal result of one pipeline run.
type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomeCaptureFailure  Outcome = "capture_failure"
	OutcomeDecodeEmpty     Outcome = "decode_empty"
	OutcomeDecodeInvalid   Outcome = "decode_invalid"
	OutcomeDecodeFailure   Outcome = "decode_failure"
	OutcomeLookupFound     Outcome = "lookup_found"
	OutcomeLookupEmpty     Outcome = "lookup_empty"
	OutcomeLookupException Outcome = "lookup_exception"
)

var outcomes = []Outcome{
	OutcomeCaptureFailure,
	OutcomeDecodeEmpty,
	OutcomeDecodeInvalid,
	OutcomeDecodeFailure,
	OutcomeLookupFound,
	OutcomeLookupEmpty,
	OutcomeLookupException,
}

// Outcomes returns every terminal outcome.
func Outcomes() []Outcome {
	return append([]Outcome(nil), outcomes...)
}

// Terminal reports whether o is one of the run-ending outcomes.
func (o Outcome) Terminal() bool {
	for _, known := range outcomes {
		if o == known {
			return true
		}
	}
	return false
}

// Failed reports whether the run ended before a lookup produced a page.
func (o Outcome) Failed() bool {
	return o.Terminal() && o != OutcomeLookupFound
}

// String returns the stored form, or "none".
func (o Outcome) String() string {
	if o == OutcomeNone {
		return "none"
	}
	return string(o)
}

// ParseOutcome converts a stored outcome name back to an [Outcome].
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.Terminal() {
		return OutcomeNone, fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}
