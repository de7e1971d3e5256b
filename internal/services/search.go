// Web search [ProductLookup] implementation
//
// Fetches a search engine result page and uses its headings as a proxy for product information.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/barcod/internal/models"
	"github.com/desertthunder/barcod/internal/shared"
)

const (
	defaultSelector = "h3"
	maxPageBytes    = 5 << 20
)

// SearchService implements [ProductLookup] by scraping a search result page.
type SearchService struct {
	cfg        shared.SearchConfig
	httpClient *http.Client
	logger     *log.Logger
}

// NewSearchService creates a search client from cfg. A nil client uses [http.DefaultClient].
func NewSearchService(cfg shared.SearchConfig, client *http.Client) *SearchService {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(cfg.Selector) == "" {
		cfg.Selector = defaultSelector
	}

	return &SearchService{
		cfg:        cfg,
		httpClient: client,
		logger:     log.Default(),
	}
}

// SetLogger replaces the service logger.
func (s *SearchService) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Name returns the service name.
func (s *SearchService) Name() string {
	if u, err := url.Parse(s.cfg.Endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return "search"
}

// Query returns the search terms for barcode: the barcode followed by the configured qualifier.
func (s *SearchService) Query(barcode string) string {
	if s.cfg.Qualifier == "" {
		return barcode
	}
	return barcode + " " + s.cfg.Qualifier
}

// QueryURL substitutes the encoded query into the endpoint template. Spaces are encoded as %20.
func (s *SearchService) QueryURL(barcode string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(s.Query(barcode)), "+", "%20")
	return strings.ReplaceAll(s.cfg.Endpoint, shared.QueryPlaceholder, encoded)
}

// Lookup fetches the result page for barcode and returns the first non-empty heading as the snippet.
//
// No retries are made and nothing is cached.
func (s *SearchService) Lookup(ctx context.Context, barcode string) (models.LookupResult, error) {
	if strings.TrimSpace(barcode) == "" {
		return models.LookupResult{}, fmt.Errorf("%w: barcode is empty", shared.ErrInvalidInput)
	}

	if timeout := s.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	queryURL := s.QueryURL(barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return models.LookupResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.LookupResult{}, fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
		return models.LookupResult{}, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return models.LookupResult{}, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	headings, err := s.extract(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return models.LookupResult{}, err
	}

	s.logger.Debug("search page fetched", "status", resp.StatusCode, "headings", len(headings), "elapsed", time.Since(start))

	result := models.LookupResult{
		Headings:   headings,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
	}
	if len(headings) > 0 {
		result.Snippet = headings[0]
		result.URL = queryURL
	}
	return result, nil
}

func (s *SearchService) setHeaders(req *http.Request) {
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	extra := shared.RequestHeaders{Headers: s.cfg.Headers, Cookie: s.cfg.Cookie}
	extra.Apply(req.Header)
}

// extract returns the whitespace-normalized text of every selector match in document order, skipping empty ones.
func (s *SearchService) extract(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var headings []string
	doc.Find(s.cfg.Selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
			headings = append(headings, text)
		}
	})
	return headings, nil
}
