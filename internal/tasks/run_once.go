package tasks

import (
	"context"
)

// RunOnce starts a capture on c and waits for that run's terminal state.
func RunOnce(ctx context.Context, c *Controller) (State, error) {
	states, cancel := c.Subscribe(8)
	defer cancel()

	runID, err := c.Capture()
	if err != nil {
		return c.State(), err
	}

	seen := false
	for {
		select {
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case s, ok := <-states:
			if !ok {
				if last := c.State(); last.Done(runID) {
					return last, nil
				}
				return c.State(), ErrNotStarted
			}
			if s.Done(runID) {
				return s, nil
			}
			if s.RunID == runID {
				seen = true
			} else if seen {
				return s, ErrRunAbandoned
			}
		}
	}
}
