package testing

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/desertthunder/barcod/internal/models"
)

// FakeSource is a test double for camera.Source.
//
// When Block is non-nil, Capture waits for it to be closed or for ctx to end.
type FakeSource struct {
	Frame *models.Frame
	Err   error
	Block chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *FakeSource) Capture(ctx context.Context) (*models.Frame, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Frame == nil {
		return nil, errors.New("no frame configured")
	}
	frame := *f.Frame
	return &frame, nil
}

func (f *FakeSource) Name() string { return "fake" }

func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeDecoder is a test double for decoder.Decoder. A non-nil Panic value is raised from Decode.
type FakeDecoder struct {
	Candidates []models.Candidate
	Err        error
	Panic      any

	mu    sync.Mutex
	calls int
}

func (f *FakeDecoder) Decode(ctx context.Context, img image.Image) ([]models.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Panic != nil {
		panic(f.Panic)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Candidate(nil), f.Candidates...), nil
}

func (f *FakeDecoder) Name() string { return "fake" }

func (f *FakeDecoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// MockLookup is a test double for services.ProductLookup.
//
// Started receives the barcode when a lookup begins; Block holds the lookup until closed.
type MockLookup struct {
	Result  models.LookupResult
	Err     error
	Panic   any
	Started chan string
	Block   chan struct{}
	BaseURL string

	mu       sync.Mutex
	barcodes []string
}

func (m *MockLookup) Lookup(ctx context.Context, barcode string) (models.LookupResult, error) {
	m.mu.Lock()
	m.barcodes = append(m.barcodes, barcode)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- barcode
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return models.LookupResult{}, ctx.Err()
		}
	}
	if m.Panic != nil {
		panic(m.Panic)
	}
	return m.Result, m.Err
}

func (m *MockLookup) QueryURL(barcode string) string {
	base := m.BaseURL
	if base == "" {
		base = "https://search.test/?q="
	}
	return base + barcode
}

// Barcodes returns every barcode looked up so far.
func (m *MockLookup) Barcodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.barcodes...)
}

// MockRecorder collects scans handed to it.
type MockRecorder struct {
	Err error

	mu    sync.Mutex
	scans []*models.Scan
}

func (m *MockRecorder) Record(scan *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans = append(m.scans, scan)
	return m.Err
}

func (m *MockRecorder) Scans() []*models.Scan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Scan(nil), m.scans...)
}

// MockOpener records opened URLs.
type MockOpener struct {
	Err error

	mu   sync.Mutex
	urls []string
}

func (m *MockOpener) Open(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	return m.Err
}

func (m *MockOpener) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}
