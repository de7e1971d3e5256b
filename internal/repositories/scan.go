package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

const scanColumns = `id, sequence, run_id, barcode, format, outcome, snippet, url, source, created_at, deleted_at`

var _ models.Repository[*models.Scan] = (*ScanRepository)(nil)

// ScanRepository implements [models.Repository] for [models.Scan] persistence.
type ScanRepository struct {
	db *sql.DB
}

// NewScanRepository creates a new [ScanRepository] with the given database connection
func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Create validates scan and inserts it with a generated ID and sequence
func (r *ScanRepository) Create(scan *models.Scan) error {
	if err := scan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "scans")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO scans (id, sequence, run_id, barcode, format, outcome, snippet, url, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, scan.RunID(), scan.Barcode(), scan.Format(), string(scan.Outcome()),
		scan.Snippet(), scan.URL(), scan.Source(), scan.CreatedAt().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	scan.SetID(id)
	scan.SetSequence(sequence)
	return nil
}

// Record implements the controller's recorder hook by appending the finished run.
func (r *ScanRepository) Record(scan *models.Scan) error {
	return r.Create(scan)
}

// Get retrieves a scan by ID, excluding soft-deleted scans
func (r *ScanRepository) Get(id string) (*models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = ? AND deleted_at IS NULL`

	scan, err := r.scanRow(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan: %w", err)
	}
	return scan, nil
}

// Delete soft-deletes a scan by ID
func (r *ScanRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE scans SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrScanNotFound, id)
	}

	return nil
}

// List retrieves scans matching the given criteria, excluding soft-deleted scans.
//
// Supported criteria:
//   - "barcode" (string) : exact payload
//   - "outcome" ([models.Outcome] or string) : run outcome
//   - "since" ([time.Time]) : created at or after
//   - "newest_first" (bool) : descending sequence order
//   - "limit" (int) : maximum rows
func (r *ScanRepository) List(criteria map[string]any) ([]*models.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE deleted_at IS NULL`
	args := []any{}

	if barcode, ok := criteria["barcode"].(string); ok && barcode != "" {
		query += " AND barcode = ?"
		args = append(args, barcode)
	}

	switch outcome := criteria["outcome"].(type) {
	case models.Outcome:
		if outcome != models.OutcomeNone {
			query += " AND outcome = ?"
			args = append(args, string(outcome))
		}
	case string:
		if outcome != "" {
			query += " AND outcome = ?"
			args = append(args, outcome)
		}
	}

	if since, ok := criteria["since"].(time.Time); ok && !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC())
	}

	if desc, ok := criteria["newest_first"].(bool); ok && desc {
		query += " ORDER BY sequence DESC"
	} else {
		query += " ORDER BY sequence ASC"
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		scan, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return scans, nil
}

// Recent returns up to limit scans, newest first.
func (r *ScanRepository) Recent(limit int) ([]*models.Scan, error) {
	return r.List(map[string]any{"newest_first": true, "limit": limit})
}

// Count returns the number of scans per outcome, excluding soft-deleted scans.
func (r *ScanRepository) Count() (map[models.Outcome]int, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM scans WHERE deleted_at IS NULL GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ScanRepository) scanRow(row rowScanner) (*models.Scan, error) {
	var (
		id, runID, barcode, format   string
		outcome, snippet, url, source string
		sequence                      int
		createdAt                     time.Time
		deletedAt                     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &runID, &barcode, &format, &outcome, &snippet, &url, &source, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := models.ParseOutcome(outcome)
	if err != nil {
		return nil, err
	}

	scan := models.NewScan(runID, parsed)
	scan.SetID(id)
	scan.SetSequence(sequence)
	scan.SetCandidate(models.Candidate{Text: barcode, Format: format})
	scan.SetLookup(models.LookupResult{Snippet: snippet, URL: url})
	scan.SetSource(source)
	scan.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		scan.SetDeletedAt(&deletedAt.Time)
	}

	return scan, nil
}
