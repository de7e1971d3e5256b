package models

import (
	"testing"
)

func TestOutcome(t *testing.T) {
	t.Run("Terminal", func(t *testing.T) {
		for _, o := range Outcomes() {
			if !o.Terminal() {
				t.Errorf("%s should be terminal", o)
			}
		}
		if OutcomeNone.Terminal() {
			t.Error("OutcomeNone should not be terminal")
		}
	})

	t.Run("Failed", func(t *testing.T) {
		if OutcomeLookupFound.Failed() {
			t.Error("lookup_found should not be a failure")
		}
		if !OutcomeDecodeEmpty.Failed() {
			t.Error("decode_empty should be a failure")
		}
		if OutcomeNone.Failed() {
			t.Error("none is not a finished run")
		}
	})

	t.Run("ParseOutcome", func(t *testing.T) {
		tests := []struct {
			in      string
			want    Outcome
			wantErr bool
		}{
			{"lookup_found", OutcomeLookupFound, false},
			{"decode_invalid", OutcomeDecodeInvalid, false},
			{"", OutcomeNone, true},
			{"bogus", OutcomeNone, true},
		}

		for _, tt := range tests {
			got, err := ParseOutcome(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOutcome(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutcome(%q) = %s, want %s", tt.in, got, tt.want)
			}
		}
	})

	t.Run("String", func(t *testing.T) {
		if OutcomeNone.String() != "none" {
			t.Errorf("expected none, got %q", OutcomeNone.String())
		}
		if OutcomeLookupEmpty.String() != "lookup_empty" {
			t.Errorf("unexpected %q", OutcomeLookupEmpty.String())
		}
	})
}

func TestLookupResult(t *testing.T) {
	if (LookupResult{}).Found() {
		t.Error("empty result should not be found")
	}
	if !(LookupResult{Snippet: "Widget X"}).Found() {
		t.Error("result with snippet should be found")
	}
}

func TestScan(t *testing.T) {
	t.Run("Valid Found Scan", func(t *testing.T) {
		scan := NewScan("run-1", OutcomeLookupFound)
		scan.SetCandidate(Candidate{Text: "012345678905", Format: "UPC_A"})
		scan.SetLookup(LookupResult{Snippet: "Widget X", URL: "https://example.com/search?q=x"})

		if err := scan.Validate(); err != nil {
			t.Errorf("expected valid scan, got %v", err)
		}
		if scan.Barcode() != "012345678905" || scan.Format() != "UPC_A" {
			t.Errorf("candidate not applied: %q %q", scan.Barcode(), scan.Format())
		}
		if !scan.UpdatedAt().Equal(scan.CreatedAt()) {
			t.Error("UpdatedAt should mirror CreatedAt")
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name string
			scan *Scan
		}{
			{"Missing Run ID", NewScan("", OutcomeDecodeEmpty)},
			{"Non Terminal Outcome", NewScan("run-1", OutcomeNone)},
			{"URL Without Found", func() *Scan {
				s := NewScan("run-1", OutcomeLookupEmpty)
				s.SetLookup(LookupResult{URL: "https://example.com"})
				return s
			}()},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.scan.Validate(); err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})
}
