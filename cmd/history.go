package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/barcod/internal/formatter"
	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent scans, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeHistory, err := r.history()
	if err != nil {
		return err
	}
	defer closeHistory()

	criteria := map[string]any{"newest_first": true, "limit": cmd.Int("limit")}
	if raw := cmd.String("outcome"); raw != "" {
		outcome, err := models.ParseOutcome(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		criteria["outcome"] = outcome
	}

	scans, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	if cmd.Bool("json") {
		records := make([]formatter.ScanRecord, 0, len(scans))
		for _, scan := range scans {
			records = append(records, formatter.NewScanRecord(scan))
		}
		return r.writeJSON(records, true)
	}

	if len(scans) == 0 {
		r.writePlain("No scans recorded yet.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Scan history (%d)", len(scans)))
	for _, scan := range scans {
		barcode := scan.Barcode()
		if barcode == "" {
			barcode = "-"
		}
		r.writePlain("#%-4d %s  %-18s %-16s %s\n",
			scan.Sequence(),
			scan.CreatedAt().Local().Format("2006-01-02 15:04:05"),
			barcode,
			scan.Outcome(),
			shared.ShortID(scan.ID()),
		)
		if scan.Snippet() != "" {
			r.writePlain("      %s\n", scan.Snippet())
		}
	}
	return nil
}

// HistoryExport writes the whole history to a file in the requested format.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, closeHistory, err := r.history()
	if err != nil {
		return err
	}
	defer closeHistory()

	scans, err := repo.List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	path, err := formatter.WriteExport(format, scans, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("history exported", "format", format, "scans", len(scans), "path", path)
	r.writePlain("✓ Exported %d scan(s) to %s\n", len(scans), path)
	return nil
}

// HistoryStats prints the number of scans per outcome.
func (r *Runner) HistoryStats(ctx context.Context, cmd *cli.Command) error {
	repo, closeHistory, err := r.history()
	if err != nil {
		return err
	}
	defer closeHistory()

	counts, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to count scans: %w", err)
	}

	if cmd.Bool("json") {
		out := make(map[string]int, len(counts))
		for outcome, n := range counts {
			out[outcome.String()] = n
		}
		return r.writeJSON(out, true)
	}

	total := 0
	r.writePlainHeader("Scans by outcome")
	for _, outcome := range models.Outcomes() {
		if !outcome.Terminal() {
			continue
		}
		n := counts[outcome]
		total += n
		r.writePlain("%-18s %d\n", outcome, n)
	}
	r.writePlain("%-18s %d\n", "total", total)
	return nil
}

// HistoryDelete removes one scan from the journal.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: scan id", shared.ErrMissingArgument)
	}

	repo, closeHistory, err := r.history()
	if err != nil {
		return err
	}
	defer closeHistory()

	if err := repo.Delete(id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted scan %s\n", id)
	return nil
}
