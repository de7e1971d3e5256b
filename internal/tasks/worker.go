package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/barcod/internal/frames"
	"github.com/desertthunder/barcod/internal/models"
)

// task is one pipeline step executed by the worker.
//
// fn returns the event to post back to the loop; record tasks post nothing.
type task struct {
	runID   string
	name    string
	record  bool
	fn      func(ctx context.Context) *event
	onPanic func(r any) *event
}

func (c *Controller) worker(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.loopDone:
			return
		case t := <-c.work:
			ev := c.execute(ctx, t)
			if ev == nil {
				continue
			}
			select {
			case c.events <- *ev:
			case <-c.loopDone:
				return
			}
		}
	}
}

// execute runs t, converting a panic into the step's failure event.
func (c *Controller) execute(ctx context.Context, t task) (ev *event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("pipeline step panicked", "step", t.name, "panic", r)
			if t.onPanic != nil {
				ev = t.onPanic(r)
			}
		}
	}()
	return t.fn(ctx)
}

func (c *Controller) captureTask(runID string) task {
	fail := func(err error) *event { return &event{kind: evCaptureFailed, runID: runID, err: err} }
	return task{
		runID: runID,
		name:  "capture",
		fn: func(ctx context.Context) *event {
			frame, err := c.handles.Camera.Capture(ctx)
			if err != nil {
				return fail(err)
			}
			if frame == nil {
				return fail(fmt.Errorf("camera returned no frame"))
			}
			return &event{kind: evFrameReady, runID: runID, frame: frame}
		},
		onPanic: func(r any) *event { return fail(fmt.Errorf("capture panic: %v", r)) },
	}
}

// decodeTask normalizes the frame and runs the decoder. A frame that cannot be normalized counts as a capture failure.
func (c *Controller) decodeTask(runID string, frame *models.Frame) task {
	return task{
		runID: runID,
		name:  "decode",
		fn: func(ctx context.Context) *event {
			img, err := frames.Normalize(frame)
			if err != nil {
				return &event{kind: evCaptureFailed, runID: runID, err: err}
			}

			candidates, err := c.handles.Decoder.Decode(ctx, img)
			if err != nil {
				return &event{kind: evDecodeFailed, runID: runID, err: err}
			}
			return &event{kind: evDecoded, runID: runID, candidates: candidates}
		},
		onPanic: func(r any) *event {
			return &event{kind: evDecodeFailed, runID: runID, err: fmt.Errorf("decode panic: %v", r)}
		},
	}
}

func (c *Controller) lookupTask(runID, barcode string) task {
	return task{
		runID: runID,
		name:  "lookup",
		fn: func(ctx context.Context) *event {
			result, err := c.handles.Lookup.Lookup(ctx, barcode)
			if err != nil {
				return &event{kind: evLookupFailed, runID: runID, err: err}
			}
			return &event{kind: evLookupDone, runID: runID, result: result}
		},
		onPanic: func(r any) *event {
			return &event{kind: evLookupFailed, runID: runID, err: fmt.Errorf("lookup panic: %v", r)}
		},
	}
}

func (c *Controller) recordTask(runID string, scan *models.Scan) task {
	return task{
		runID:  runID,
		name:   "record",
		record: true,
		fn: func(context.Context) *event {
			if err := c.handles.Recorder.Record(scan); err != nil {
				c.logger.Warn("failed to record scan", "run_id", runID, "err", err)
			}
			return nil
		},
	}
}
