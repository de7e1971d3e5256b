package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/barcod/internal/camera"
	"github.com/desertthunder/barcod/internal/decoder"
	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/services"
	"github.com/desertthunder/barcod/internal/shared"
)

var (
	ErrBusy           = errors.New("a scan is already in progress")
	ErrNotStarted     = errors.New("controller is not running")
	ErrAlreadyStarted = errors.New("controller already started")
	ErrNoProductPage  = errors.New("no product page available")
	ErrRunAbandoned   = errors.New("scan was reset before it finished")
)

// Recorder receives every finished run. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(scan *models.Scan) error
}

// Opener shows a URL to the user.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to [Opener].
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// Handles are the collaborators a [Controller] drives. Recorder and Opener are optional.
type Handles struct {
	Camera   camera.Source
	Decoder  decoder.Decoder
	Lookup   services.ProductLookup
	Recorder Recorder
	Opener   Opener
}

func (h *Handles) validate() error {
	var errs []error
	if h.Camera == nil {
		errs = append(errs, errors.New("camera"))
	}
	if h.Decoder == nil {
		errs = append(errs, errors.New("decoder"))
	}
	if h.Lookup == nil {
		errs = append(errs, errors.New("lookup"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: missing handles: %w", shared.ErrMissingArgument, errors.Join(errs...))
	}
	if h.Opener == nil {
		h.Opener = OpenerFunc(shared.OpenBrowser)
	}
	return nil
}

// ControllerOpts configures a [Controller].
type ControllerOpts struct {
	Logger *log.Logger
	// RejectLogInterval throttles the log line written for captures rejected with [ErrBusy].
	RejectLogInterval time.Duration
}

// Controller runs the capture → normalize → decode → lookup pipeline.
//
// An event loop goroutine is the only writer of [State]. A single worker goroutine executes the pipeline
// steps in FIFO order and posts each result back to the loop.
type Controller struct {
	logger  *log.Logger
	handles Handles

	state atomic.Pointer[State]

	events   chan event
	work     chan task
	loopDone chan struct{}

	subsMu     sync.Mutex
	subs       map[int]chan State
	nextSub    int
	subsClosed bool

	running  atomic.Bool
	started  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	rejected rate.Sometimes

	// loop-owned
	run     *runInfo
	pending []task
}

// runInfo is what the loop remembers about the run in flight.
type runInfo struct {
	id        string
	source    string
	candidate models.Candidate
	logger    *log.Logger
}

// NewController creates an idle [Controller]. Call [Controller.Start] before capturing.
func NewController(opts ControllerOpts) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	interval := opts.RejectLogInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	c := &Controller{
		logger:   shared.WithLogger(logger, "component", "controller"),
		events:   make(chan event),
		work:     make(chan task),
		loopDone: make(chan struct{}),
		subs:     make(map[int]chan State),
		rejected: rate.Sometimes{First: 1, Interval: interval},
	}
	initial := idleState()
	c.state.Store(&initial)
	return c
}

// Start launches the event loop and the worker. Cancelling ctx stops the controller like [Controller.Stop].
func (c *Controller) Start(ctx context.Context, h Handles) error {
	if err := h.validate(); err != nil {
		return err
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	c.handles = h
	ctx, c.cancel = context.WithCancel(ctx)

	c.running.Store(true)
	c.wg.Add(2)
	go c.loop(ctx)
	go c.worker(ctx)

	c.logger.Debug("controller started", "camera", h.Camera.Name(), "decoder", h.Decoder.Name())
	return nil
}

// Stop cancels in-flight work, closes subscriptions, and waits for both goroutines to exit.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		c.closeSubscribers()
		c.logger.Debug("controller stopped")
	})
}

// State returns the current snapshot.
func (c *Controller) State() State {
	return *c.state.Load()
}

// Capture starts a new run and returns its ID.
//
// A capture while a run is in flight is rejected with [ErrBusy] and leaves the state unchanged.
func (c *Controller) Capture() (string, error) {
	reply := make(chan captureReply, 1)
	if err := c.send(event{kind: evCapture, capture: reply}); err != nil {
		return "", err
	}

	select {
	case r := <-reply:
		return r.runID, r.err
	case <-c.loopDone:
		return "", ErrNotStarted
	}
}

// Reset returns to the idle state from any state. A run in flight is abandoned and its results discarded.
func (c *Controller) Reset() error {
	reply := make(chan struct{})
	if err := c.send(event{kind: evReset, reset: reply}); err != nil {
		return err
	}

	select {
	case <-reply:
		return nil
	case <-c.loopDone:
		return ErrNotStarted
	}
}

// OpenProductPage opens the current product page through the [Opener] handle.
func (c *Controller) OpenProductPage() error {
	if !c.running.Load() {
		return ErrNotStarted
	}

	s := c.State()
	if !s.HasProductPage() {
		return ErrNoProductPage
	}

	if err := c.handles.Opener.Open(s.ProductURL); err != nil {
		return fmt.Errorf("failed to open product page: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving every new [State], starting with the current one, and a function that ends
// the subscription.
//
// When the channel buffer is full the oldest snapshot is dropped so the latest always arrives.
// The channel is closed by the cancel function or when the controller stops.
func (c *Controller) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	if c.subsClosed {
		ch <- c.State()
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.State()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Controller) send(ev event) error {
	if !c.running.Load() {
		return ErrNotStarted
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.loopDone:
		return ErrNotStarted
	}
}

// publish stores next and fans it out to subscribers. Only the loop calls it.
func (c *Controller) publish(next State) {
	c.state.Store(&next)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- next:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
}

func (c *Controller) closeSubscribers() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.subsClosed = true
}
