package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/barcod/internal/decoder"
	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/services"
	"github.com/desertthunder/barcod/internal/shared"
	tu "github.com/desertthunder/barcod/internal/testing"
)

const (
	testPayload = "012345678905"
	testSnippet = "Widget X — Acme Co."
	testURL     = "https://search.test/?q=012345678905%20product"
)

func newController(t *testing.T, h Handles) *Controller {
	t.Helper()
	c := NewController(ControllerOpts{Logger: shared.NewLogger(io.Discard)})
	if err := c.Start(context.Background(), h); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func fixtureHandles(t *testing.T) (Handles, *tu.FakeSource, *tu.FakeDecoder, *tu.MockLookup) {
	t.Helper()
	src := &tu.FakeSource{Frame: tu.PNGFrame(t, tu.BlankImage(8, 8), 90)}
	dec := &tu.FakeDecoder{Candidates: []models.Candidate{{Text: testPayload, Format: "UPC_A"}}}
	lookup := &tu.MockLookup{Result: models.LookupResult{Snippet: testSnippet, URL: testURL}}
	return Handles{Camera: src, Decoder: dec, Lookup: lookup, Opener: &tu.MockOpener{}}, src, dec, lookup
}

func runOnce(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := RunOnce(ctx, c)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	return s
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func assertNoProductPage(t *testing.T, s State) {
	t.Helper()
	if s.HasProductPage() || s.ProductURL != "" {
		t.Errorf("affordance should be hidden, got URL %q", s.ProductURL)
	}
}

func TestController(t *testing.T) {
	t.Run("Initial State", func(t *testing.T) {
		c := NewController(ControllerOpts{})
		s := c.State()
		if s.Phase != Idle || s.Status != StatusDefault || s.Outcome != models.OutcomeNone {
			t.Errorf("unexpected initial state %+v", s)
		}
	})

	t.Run("Lifecycle", func(t *testing.T) {
		t.Run("Capture Before Start", func(t *testing.T) {
			c := NewController(ControllerOpts{})
			if _, err := c.Capture(); !errors.Is(err, ErrNotStarted) {
				t.Errorf("expected ErrNotStarted, got %v", err)
			}
			if err := c.Reset(); !errors.Is(err, ErrNotStarted) {
				t.Errorf("expected ErrNotStarted, got %v", err)
			}
		})

		t.Run("Missing Handles", func(t *testing.T) {
			c := NewController(ControllerOpts{})
			err := c.Start(context.Background(), Handles{Camera: &tu.FakeSource{}})
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Start Twice", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := newController(t, h)
			if err := c.Start(context.Background(), h); !errors.Is(err, ErrAlreadyStarted) {
				t.Errorf("expected ErrAlreadyStarted, got %v", err)
			}
		})

		t.Run("Stop", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := newController(t, h)
			states, _ := c.Subscribe(1)

			c.Stop()
			c.Stop()

			if _, err := c.Capture(); !errors.Is(err, ErrNotStarted) {
				t.Errorf("expected ErrNotStarted after stop, got %v", err)
			}

			for range states {
			}
		})

		t.Run("Context Cancel", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := NewController(ControllerOpts{Logger: shared.NewLogger(io.Discard)})
			ctx, cancel := context.WithCancel(context.Background())
			if err := c.Start(ctx, h); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			defer c.Stop()

			cancel()
			eventually(t, func() bool {
				_, err := c.Capture()
				return errors.Is(err, ErrNotStarted)
			})
		})
	})

	t.Run("Lookup Found", func(t *testing.T) {
		h, _, _, lookup := fixtureHandles(t)
		lookup.Started = make(chan string, 1)
		lookup.Block = make(chan struct{})
		c := newController(t, h)

		done := make(chan State, 1)
		go func() {
			s, _ := RunOnce(context.Background(), c)
			done <- s
		}()

		select {
		case barcode := <-lookup.Started:
			if barcode != testPayload {
				t.Errorf("lookup got barcode %q", barcode)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("lookup never started")
		}

		during := c.State()
		if during.Status != "Barcode Info: 012345678905" {
			t.Errorf("expected payload status before lookup completes, got %q", during.Status)
		}
		if during.Phase != LookingUp {
			t.Errorf("expected LookingUp, got %s", during.Phase)
		}
		assertNoProductPage(t, during)

		close(lookup.Block)

		var s State
		select {
		case s = <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("run did not finish")
		}

		if s.Phase != Displaying || s.Outcome != models.OutcomeLookupFound {
			t.Errorf("unexpected final state %+v", s)
		}
		if s.Status != "Search result: "+testSnippet {
			t.Errorf("unexpected status %q", s.Status)
		}
		if s.ProductURL != testURL || !s.HasProductPage() {
			t.Errorf("expected product URL %q, got %q", testURL, s.ProductURL)
		}
		if s.Barcode != testPayload || s.Format != "UPC_A" {
			t.Errorf("barcode not carried to final state: %+v", s)
		}
	})

	t.Run("Found Without URL Uses Query URL", func(t *testing.T) {
		h, _, _, lookup := fixtureHandles(t)
		lookup.Result = models.LookupResult{Snippet: testSnippet}
		lookup.BaseURL = "https://fallback.test/?q="
		c := newController(t, h)

		s := runOnce(t, c)
		if s.ProductURL != "https://fallback.test/?q="+testPayload {
			t.Errorf("expected query URL fallback, got %q", s.ProductURL)
		}
	})

	t.Run("Terminal Outcomes", func(t *testing.T) {
		boom := errors.New("boom")
		tests := []struct {
			name    string
			setup   func(src *tu.FakeSource, dec *tu.FakeDecoder, lookup *tu.MockLookup)
			phase   Phase
			outcome models.Outcome
			status  string
			lookups int
		}{
			{
				name:    "Capture Error",
				setup:   func(src *tu.FakeSource, _ *tu.FakeDecoder, _ *tu.MockLookup) { src.Err = boom },
				phase:   Idle,
				outcome: models.OutcomeCaptureFailure,
				status:  "No barcode detected. Please try again.",
			},
			{
				name: "Undecodable Frame",
				setup: func(src *tu.FakeSource, _ *tu.FakeDecoder, _ *tu.MockLookup) {
					src.Frame = &models.Frame{Data: []byte("not an image")}
				},
				phase:   Idle,
				outcome: models.OutcomeCaptureFailure,
				status:  "No barcode detected. Please try again.",
			},
			{
				name:    "Zero Candidates",
				setup:   func(_ *tu.FakeSource, dec *tu.FakeDecoder, _ *tu.MockLookup) { dec.Candidates = nil },
				phase:   Idle,
				outcome: models.OutcomeDecodeEmpty,
				status:  "No barcode detected. Please try again.",
			},
			{
				name: "Empty Payload",
				setup: func(_ *tu.FakeSource, dec *tu.FakeDecoder, _ *tu.MockLookup) {
					dec.Candidates = []models.Candidate{{Text: "", Format: "QR_CODE"}, {Text: "second"}}
				},
				phase:   Idle,
				outcome: models.OutcomeDecodeInvalid,
				status:  "No valid information found on the barcode.",
			},
			{
				name:    "Decoder Error",
				setup:   func(_ *tu.FakeSource, dec *tu.FakeDecoder, _ *tu.MockLookup) { dec.Err = boom },
				phase:   Idle,
				outcome: models.OutcomeDecodeFailure,
				status:  "An error occurred during barcode scanning. Please try again.",
			},
			{
				name:    "Decoder Panic",
				setup:   func(_ *tu.FakeSource, dec *tu.FakeDecoder, _ *tu.MockLookup) { dec.Panic = "kaboom" },
				phase:   Idle,
				outcome: models.OutcomeDecodeFailure,
				status:  "An error occurred during barcode scanning. Please try again.",
			},
			{
				name: "Lookup Empty",
				setup: func(_ *tu.FakeSource, _ *tu.FakeDecoder, lookup *tu.MockLookup) {
					lookup.Result = models.LookupResult{}
				},
				phase:   Displaying,
				outcome: models.OutcomeLookupEmpty,
				status:  "No product information found.",
				lookups: 1,
			},
			{
				name: "Lookup Network Exception",
				setup: func(_ *tu.FakeSource, _ *tu.FakeDecoder, lookup *tu.MockLookup) {
					lookup.Err = shared.ErrAPIRequest
				},
				phase:   Displaying,
				outcome: models.OutcomeLookupException,
				status:  "An error occurred while retrieving product information.",
				lookups: 1,
			},
			{
				name:    "Lookup Panic",
				setup:   func(_ *tu.FakeSource, _ *tu.FakeDecoder, lookup *tu.MockLookup) { lookup.Panic = "kaboom" },
				phase:   Displaying,
				outcome: models.OutcomeLookupException,
				status:  "An error occurred while retrieving product information.",
				lookups: 1,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h, src, dec, lookup := fixtureHandles(t)
				tt.setup(src, dec, lookup)
				c := newController(t, h)

				s := runOnce(t, c)
				if s.Phase != tt.phase {
					t.Errorf("expected phase %s, got %s", tt.phase, s.Phase)
				}
				if s.Outcome != tt.outcome {
					t.Errorf("expected outcome %s, got %s", tt.outcome, s.Outcome)
				}
				if s.Status != tt.status {
					t.Errorf("expected status %q, got %q", tt.status, s.Status)
				}
				assertNoProductPage(t, s)
				if got := len(lookup.Barcodes()); got != tt.lookups {
					t.Errorf("expected %d lookups, got %d", tt.lookups, got)
				}

				// the controller keeps working after any failure
				src.Err, src.Frame = nil, tu.PNGFrame(t, tu.BlankImage(4, 4), 0)
				dec.Err, dec.Panic = nil, nil
				dec.Candidates = []models.Candidate{{Text: testPayload}}
				lookup.Err, lookup.Panic = nil, nil
				lookup.Result = models.LookupResult{Snippet: testSnippet, URL: testURL}

				if s := runOnce(t, c); s.Outcome != models.OutcomeLookupFound {
					t.Errorf("follow-up run should succeed, got %+v", s)
				}
			})
		}
	})

	t.Run("Busy", func(t *testing.T) {
		h, src, _, _ := fixtureHandles(t)
		src.Block = make(chan struct{})
		c := newController(t, h)

		runID, err := c.Capture()
		if err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
		before := c.State()

		if _, err := c.Capture(); !errors.Is(err, ErrBusy) {
			t.Errorf("expected ErrBusy, got %v", err)
		}
		if after := c.State(); after != before {
			t.Errorf("rejected capture changed state: %+v -> %+v", before, after)
		}
		if before.RunID != runID || before.Phase != Capturing {
			t.Errorf("unexpected in-flight state %+v", before)
		}

		close(src.Block)
		eventually(t, func() bool { return c.State().Done(runID) })
	})

	t.Run("Reset", func(t *testing.T) {
		t.Run("From Displaying Is Idempotent", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := newController(t, h)
			runOnce(t, c)

			for i := 0; i < 3; i++ {
				if err := c.Reset(); err != nil {
					t.Fatalf("Reset() error = %v", err)
				}
				s := c.State()
				if s.Phase != Idle || s.Status != "Barcode Info" || s.Barcode != "" || s.RunID != "" {
					t.Errorf("reset %d left state %+v", i, s)
				}
				assertNoProductPage(t, s)
			}
		})

		t.Run("From Failure", func(t *testing.T) {
			h, _, dec, _ := fixtureHandles(t)
			dec.Candidates = nil
			c := newController(t, h)
			runOnce(t, c)

			if err := c.Reset(); err != nil {
				t.Fatalf("Reset() error = %v", err)
			}
			if s := c.State(); s.Status != StatusDefault || s.Outcome != models.OutcomeNone {
				t.Errorf("unexpected state after reset %+v", s)
			}
		})

		t.Run("Abandons In Flight Run", func(t *testing.T) {
			h, _, _, lookup := fixtureHandles(t)
			lookup.Started = make(chan string, 2)
			lookup.Block = make(chan struct{})
			rec := &tu.MockRecorder{}
			h.Recorder = rec
			c := newController(t, h)

			first, err := c.Capture()
			if err != nil {
				t.Fatalf("Capture() error = %v", err)
			}
			<-lookup.Started

			if err := c.Reset(); err != nil {
				t.Fatalf("Reset() error = %v", err)
			}
			if s := c.State(); s.Phase != Idle || s.Barcode != "" {
				t.Errorf("reset during lookup left %+v", s)
			}

			second, err := c.Capture()
			if err != nil {
				t.Fatalf("capture after reset should be accepted, got %v", err)
			}
			close(lookup.Block)

			eventually(t, func() bool { return c.State().Done(second) })
			if c.State().RunID == first {
				t.Error("abandoned run should not publish state")
			}

			eventually(t, func() bool { return len(rec.Scans()) == 1 })
			if rec.Scans()[0].RunID() != second {
				t.Errorf("only the second run should be recorded, got %s", rec.Scans()[0].RunID())
			}
		})
	})

	t.Run("OpenProductPage", func(t *testing.T) {
		h, _, dec, _ := fixtureHandles(t)
		opener := &tu.MockOpener{}
		h.Opener = opener
		c := newController(t, h)

		if err := c.OpenProductPage(); !errors.Is(err, ErrNoProductPage) {
			t.Errorf("expected ErrNoProductPage before a result, got %v", err)
		}

		runOnce(t, c)
		if err := c.OpenProductPage(); err != nil {
			t.Fatalf("OpenProductPage() error = %v", err)
		}
		if urls := opener.URLs(); len(urls) != 1 || urls[0] != testURL {
			t.Errorf("expected %s to be opened, got %v", testURL, urls)
		}

		dec.Candidates = nil
		runOnce(t, c)
		if err := c.OpenProductPage(); !errors.Is(err, ErrNoProductPage) {
			t.Errorf("expected ErrNoProductPage after a failed run, got %v", err)
		}
	})

	t.Run("Recorder", func(t *testing.T) {
		h, _, _, _ := fixtureHandles(t)
		rec := &tu.MockRecorder{Err: errors.New("disk full")}
		h.Recorder = rec
		c := newController(t, h)

		s := runOnce(t, c)
		eventually(t, func() bool { return len(rec.Scans()) == 1 })

		scan := rec.Scans()[0]
		if scan.RunID() != s.RunID || scan.Outcome() != models.OutcomeLookupFound {
			t.Errorf("unexpected scan %s %s", scan.RunID(), scan.Outcome())
		}
		if scan.Barcode() != testPayload || scan.Snippet() != testSnippet || scan.URL() != testURL {
			t.Errorf("scan fields not set: %q %q %q", scan.Barcode(), scan.Snippet(), scan.URL())
		}
		if scan.Source() != "fixture" {
			t.Errorf("expected source fixture, got %q", scan.Source())
		}
		if err := scan.Validate(); err != nil {
			t.Errorf("recorded scan should be valid: %v", err)
		}
		if c.State().Outcome != models.OutcomeLookupFound {
			t.Error("recorder errors must not change state")
		}
	})

	t.Run("Subscribe", func(t *testing.T) {
		t.Run("Sees Every Phase", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := newController(t, h)
			states, cancel := c.Subscribe(16)
			defer cancel()

			s := runOnce(t, c)

			var phases []Phase
			timeout := time.After(3 * time.Second)
		collect:
			for {
				select {
				case got := <-states:
					phases = append(phases, got.Phase)
					if got.Done(s.RunID) {
						break collect
					}
				case <-timeout:
					t.Fatal("did not receive terminal state")
				}
			}

			want := []Phase{Idle, Capturing, Decoding, LookingUp, Displaying}
			if len(phases) != len(want) {
				t.Fatalf("expected phases %v, got %v", want, phases)
			}
			for i := range want {
				if phases[i] != want[i] {
					t.Errorf("phase %d: want %s got %s", i, want[i], phases[i])
				}
			}
		})

		t.Run("Latest Wins", func(t *testing.T) {
			h, _, _, _ := fixtureHandles(t)
			c := newController(t, h)
			states, cancel := c.Subscribe(1)

			s := runOnce(t, c)
			got := <-states
			if got.RunID != s.RunID || !got.Done(s.RunID) {
				t.Errorf("expected the terminal state to survive, got %+v", got)
			}

			cancel()
			cancel()
			if _, ok := <-states; ok {
				t.Error("channel should be closed after cancel")
			}
		})
	})
}

func TestRunOnceWithRealDecoderAndSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "5901234123457 product" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "<html><body><h3>Chocolate Bar 100g</h3><h3>Other</h3></body></html>")
	}))
	defer server.Close()

	cfg := shared.DefaultConfig().Search
	cfg.Endpoint = server.URL + "/search?q={query}"

	h := Handles{
		Camera:  &tu.FakeSource{Frame: tu.PNGFrame(t, tu.EAN13Image(t, "5901234123457"), 0)},
		Decoder: decoder.NewChain(decoder.NewZXing(), decoder.NewQR()),
		Lookup:  services.NewSearchService(cfg, server.Client()),
	}
	c := newController(t, h)

	s := runOnce(t, c)
	if s.Outcome != models.OutcomeLookupFound {
		t.Fatalf("expected lookup_found, got %+v", s)
	}
	if s.Status != "Search result: Chocolate Bar 100g" {
		t.Errorf("unexpected status %q", s.Status)
	}
	if s.ProductURL != server.URL+"/search?q=5901234123457%20product" {
		t.Errorf("unexpected product URL %q", s.ProductURL)
	}
}
