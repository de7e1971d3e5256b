package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

type eventKind int

const (
	evCapture eventKind = iota
	evReset
	evFrameReady
	evCaptureFailed
	evDecoded
	evDecodeFailed
	evLookupDone
	evLookupFailed
)

// event is a request from a caller or a step result from the worker.
type event struct {
	kind  eventKind
	runID string

	frame      *models.Frame
	candidates []models.Candidate
	result     models.LookupResult
	err        error

	capture chan<- captureReply
	reset   chan<- struct{}
}

type captureReply struct {
	runID string
	err   error
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.running.Store(false)
		close(c.loopDone)
		c.closeSubscribers()
	}()

	for {
		var (
			next chan<- task
			head task
		)
		if len(c.pending) > 0 {
			next, head = c.work, c.pending[0]
		}

		select {
		case <-ctx.Done():
			return
		case next <- head:
			c.pending = c.pending[1:]
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case evCapture:
		ev.capture <- c.startRun()
		return
	case evReset:
		c.resetRun()
		close(ev.reset)
		return
	}

	if c.run == nil || ev.runID != c.run.id {
		c.logger.Debug("discarding result of abandoned run", "run_id", shared.ShortID(ev.runID))
		return
	}

	current := c.State()
	switch ev.kind {
	case evFrameReady:
		c.run.source = ev.frame.Source
		c.publish(State{Phase: Decoding, Status: StatusDefault, RunID: c.run.id, UpdatedAt: time.Now()})
		c.enqueue(c.decodeTask(c.run.id, ev.frame))

	case evCaptureFailed:
		c.run.logger.Warn("capture failed", "err", ev.err)
		c.finish(current, models.OutcomeCaptureFailure, models.LookupResult{})

	case evDecodeFailed:
		c.run.logger.Warn("decode failed", "err", ev.err)
		c.finish(current, models.OutcomeDecodeFailure, models.LookupResult{})

	case evDecoded:
		if len(ev.candidates) == 0 {
			c.run.logger.Info("no barcode found")
			c.finish(current, models.OutcomeDecodeEmpty, models.LookupResult{})
			return
		}

		first := ev.candidates[0]
		c.run.candidate = first
		if first.Text == "" {
			c.run.logger.Info("barcode has empty payload", "format", first.Format)
			c.finish(current, models.OutcomeDecodeInvalid, models.LookupResult{})
			return
		}

		c.run.logger.Info("barcode decoded", "payload", first.Text, "format", first.Format, "candidates", len(ev.candidates))
		c.publish(State{
			Phase:     LookingUp,
			Status:    BarcodeStatus(first.Text),
			Barcode:   first.Text,
			Format:    first.Format,
			RunID:     c.run.id,
			UpdatedAt: time.Now(),
		})
		c.enqueue(c.lookupTask(c.run.id, first.Text))

	case evLookupDone:
		if !ev.result.Found() {
			c.run.logger.Info("no product information found")
			c.finish(current, models.OutcomeLookupEmpty, models.LookupResult{})
			return
		}
		if ev.result.URL == "" {
			ev.result.URL = c.handles.Lookup.QueryURL(current.Barcode)
		}
		c.run.logger.Info("product found", "snippet", ev.result.Snippet)
		c.finish(current, models.OutcomeLookupFound, ev.result)

	case evLookupFailed:
		c.run.logger.Warn("lookup failed", "err", ev.err)
		c.finish(current, models.OutcomeLookupException, models.LookupResult{})
	}
}

// startRun begins a run unless one is in flight.
func (c *Controller) startRun() captureReply {
	if c.run != nil {
		c.rejected.Do(func() {
			c.logger.Warn("capture rejected", "err", ErrBusy, "run_id", shared.ShortID(c.run.id))
		})
		return captureReply{err: ErrBusy}
	}

	id := shared.GenerateID()
	c.run = &runInfo{id: id, logger: shared.WithLogger(c.logger, "run_id", shared.ShortID(id))}
	c.run.logger.Debug("capture requested")

	c.publish(State{Phase: Capturing, Status: StatusDefault, RunID: id, UpdatedAt: time.Now()})
	c.enqueue(c.captureTask(id))
	return captureReply{runID: id}
}

// resetRun abandons the run in flight, drops its queued steps, and publishes the idle state.
func (c *Controller) resetRun() {
	if c.run != nil {
		c.run.logger.Info("run abandoned by reset")
		abandoned := c.run.id
		kept := c.pending[:0]
		for _, t := range c.pending {
			if t.runID != abandoned || t.record {
				kept = append(kept, t)
			}
		}
		c.pending = kept
		c.run = nil
	}
	c.publish(idleState())
}

// finish publishes the terminal state of the current run and queues it for recording.
func (c *Controller) finish(current State, outcome models.Outcome, result models.LookupResult) {
	c.publish(terminalState(current, outcome, result))

	if c.handles.Recorder != nil {
		scan := models.NewScan(c.run.id, outcome)
		scan.SetCandidate(c.run.candidate)
		scan.SetSource(c.run.source)
		scan.SetLookup(result)
		c.enqueue(c.recordTask(c.run.id, scan))
	}
	c.run = nil
}

func (c *Controller) enqueue(t task) {
	c.pending = append(c.pending, t)
}
