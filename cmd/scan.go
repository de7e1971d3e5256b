package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/barcod/internal/frames"
	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
	"github.com/desertthunder/barcod/internal/tasks"
	"github.com/urfave/cli/v3"
)

const recordWait = 5 * time.Second

// notifyingRecorder forwards to a [tasks.Recorder] and reports when the write finished.
type notifyingRecorder struct {
	next tasks.Recorder
	done chan error
}

func newNotifyingRecorder(next tasks.Recorder) *notifyingRecorder {
	return &notifyingRecorder{next: next, done: make(chan error, 1)}
}

func (n *notifyingRecorder) Record(scan *models.Scan) error {
	err := n.next.Record(scan)
	select {
	case n.done <- err:
	default:
	}
	return err
}

// wait blocks until the run has been recorded or the timeout passes.
func (n *notifyingRecorder) wait(ctx context.Context, timeout time.Duration) error {
	select {
	case err := <-n.done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("%w: scan was not recorded within %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func rotationFlag(cmd *cli.Command) *float64 {
	if !cmd.IsSet("rotation") {
		return nil
	}
	v := cmd.Float("rotation")
	return &v
}

// Scan runs one capture through the controller and prints the terminal state.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	source, err := r.camera(cmd.String("image"), rotationFlag(cmd))
	if err != nil {
		return fmt.Errorf("failed to create camera source: %w", err)
	}

	dec, err := r.decoder()
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	repo, closeHistory, err := r.optionalHistory()
	if err != nil {
		return fmt.Errorf("failed to open scan history: %w", err)
	}
	defer closeHistory()

	handles := tasks.Handles{Camera: source, Decoder: dec, Lookup: r.search()}
	var recorder *notifyingRecorder
	if repo != nil {
		recorder = newNotifyingRecorder(repo)
		handles.Recorder = recorder
	}

	controller := tasks.NewController(tasks.ControllerOpts{Logger: r.logger})
	if err := controller.Start(ctx, handles); err != nil {
		return fmt.Errorf("failed to start scanner: %w", err)
	}
	defer controller.Stop()

	r.logger.Debug("scanning", "source", source.Name(), "decoder", dec.Name())

	state, err := tasks.RunOnce(ctx, controller)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if recorder != nil {
		if err := recorder.wait(ctx, recordWait); err != nil {
			r.logger.Warn("scan not saved to history", "error", err)
		}
	}

	if cmd.Bool("open") && state.HasProductPage() {
		if err := controller.OpenProductPage(); err != nil {
			r.logger.Warn("could not open product page", "url", state.ProductURL, "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}

	r.writePlainHeader("Scan result")
	r.writePlain("Outcome: %s\n", state.Outcome)
	r.writePlain("%s\n", state.Status)
	if state.Barcode != "" {
		r.writePlain("Barcode: %s (%s)\n", state.Barcode, state.Format)
	}
	if state.HasProductPage() {
		r.writePlain("%s: %s\n", tasks.ProductPageLabel, state.ProductURL)
	}
	return nil
}

// decodeResult is the JSON shape of the decode command.
type decodeResult struct {
	Source     string             `json:"source"`
	Decoder    string             `json:"decoder"`
	Candidates []models.Candidate `json:"candidates"`
}

// Decode captures a single frame from the image, normalizes it, and prints every candidate found.
func (r *Runner) Decode(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("image")
	if path == "" {
		return fmt.Errorf("%w: --image", shared.ErrMissingArgument)
	}

	source, err := r.camera(path, rotationFlag(cmd))
	if err != nil {
		return fmt.Errorf("failed to create camera source: %w", err)
	}

	dec, err := r.decoder()
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	frame, err := source.Capture(ctx)
	if err != nil {
		return err
	}

	img, err := frames.Normalize(frame)
	if err != nil {
		return err
	}

	candidates, err := dec.Decode(ctx, img)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if candidates == nil {
			candidates = []models.Candidate{}
		}
		return r.writeJSON(decodeResult{Source: source.Name(), Decoder: dec.Name(), Candidates: candidates}, true)
	}

	if len(candidates) == 0 {
		r.writePlain("%s\n", tasks.StatusNoBarcode)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Decoded %d barcode(s) from %s", len(candidates), frame.Source))
	for i, c := range candidates {
		text := c.Text
		if text == "" {
			text = "<empty payload>"
		}
		r.writePlain("%d. %s [%s]\n", i+1, text, c.Format)
	}
	return nil
}

// Lookup searches for a barcode payload and prints the product snippet.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	barcode := strings.TrimSpace(cmd.StringArg("barcode"))
	if barcode == "" {
		return fmt.Errorf("%w: barcode", shared.ErrMissingArgument)
	}

	svc := r.search()
	r.logger.Debug("looking up barcode", "barcode", barcode, "endpoint", svc.Name())

	result, err := svc.Lookup(ctx, barcode)
	if err != nil {
		if errors.Is(err, shared.ErrTimeout) {
			return fmt.Errorf("lookup timed out after %v: %w", r.config.Search.Timeout(), err)
		}
		return fmt.Errorf("lookup failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if !result.Found() {
		r.writePlain("%s\n", tasks.StatusNoProductInfo)
		return nil
	}

	r.writePlain("%s\n", tasks.ResultStatus(result.Snippet))
	if result.URL != "" {
		r.writePlain("%s: %s\n", tasks.ProductPageLabel, result.URL)
	}
	return nil
}
