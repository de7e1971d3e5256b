package models

import (
	"errors"
	"fmt"
	"time"
)

// Scan is the history record of one finished pipeline run.
type Scan struct {
	id        string
	sequence  int
	runID     string
	barcode   string
	format    string
	outcome   Outcome
	snippet   string
	url       string
	source    string
	createdAt time.Time
	deletedAt *time.Time
}

// NewScan creates a scan record for the run identified by runID.
func NewScan(runID string, outcome Outcome) *Scan {
	return &Scan{runID: runID, outcome: outcome, createdAt: time.Now()}
}

func (s *Scan) ID() string            { return s.id }
func (s *Scan) Sequence() int         { return s.sequence }
func (s *Scan) RunID() string         { return s.runID }
func (s *Scan) Barcode() string       { return s.barcode }
func (s *Scan) Format() string        { return s.format }
func (s *Scan) Outcome() Outcome      { return s.outcome }
func (s *Scan) Snippet() string       { return s.snippet }
func (s *Scan) URL() string           { return s.url }
func (s *Scan) Source() string        { return s.source }
func (s *Scan) CreatedAt() time.Time  { return s.createdAt }
func (s *Scan) DeletedAt() *time.Time { return s.deletedAt }

// UpdatedAt equals CreatedAt since scans are never modified.
func (s *Scan) UpdatedAt() time.Time { return s.createdAt }

func (s *Scan) SetID(id string)               { s.id = id }
func (s *Scan) SetSequence(seq int)           { s.sequence = seq }
func (s *Scan) SetCreatedAt(t time.Time)      { s.createdAt = t }
func (s *Scan) SetDeletedAt(t *time.Time)     { s.deletedAt = t }
func (s *Scan) SetSource(source string)       { s.source = source }
func (s *Scan) SetCandidate(c Candidate)      { s.barcode, s.format = c.Text, c.Format }
func (s *Scan) SetLookup(result LookupResult) { s.snippet, s.url = result.Snippet, result.URL }

// Validate checks the run ID, outcome, and that a URL only accompanies a found lookup.
func (s *Scan) Validate() error {
	var errs []error
	if s.runID == "" {
		errs = append(errs, errors.New("run ID is required"))
	}
	if !s.outcome.Terminal() {
		errs = append(errs, fmt.Errorf("outcome %q is not terminal", s.outcome))
	}
	if s.url != "" && s.outcome != OutcomeLookupFound {
		errs = append(errs, fmt.Errorf("url set for outcome %s", s.outcome))
	}
	return errors.Join(errs...)
}
