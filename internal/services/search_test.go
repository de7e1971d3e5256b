package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/barcod/internal/shared"
	tu "github.com/desertthunder/barcod/internal/testing"
)

const resultsPage = `<!doctype html>
<html><body>
  <div id="search">
    <a href="/1"><h3>Widget X — Acme Co.</h3></a>
    <a href="/2"><h3>Other</h3></a>
  </div>
</body></html>`

func newTestConfig(endpoint string) shared.SearchConfig {
	cfg := shared.DefaultConfig().Search
	cfg.Endpoint = endpoint
	return cfg
}

func TestSearchService(t *testing.T) {
	t.Run("QueryURL", func(t *testing.T) {
		tests := []struct {
			name      string
			endpoint  string
			qualifier string
			barcode   string
			want      string
		}{
			{
				name:      "default template",
				endpoint:  "https://www.google.com/search?q={query}",
				qualifier: "product",
				barcode:   "012345678905",
				want:      "https://www.google.com/search?q=012345678905%20product",
			},
			{
				name:      "reserved characters",
				endpoint:  "https://example.com/s?q={query}&hl=en",
				qualifier: "product",
				barcode:   "A&B/1",
				want:      "https://example.com/s?q=A%26B%2F1%20product&hl=en",
			},
			{
				name:     "no qualifier",
				endpoint: "https://example.com/{query}",
				barcode:  "42",
				want:     "https://example.com/42",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := newTestConfig(tt.endpoint)
				cfg.Qualifier = tt.qualifier
				if got := NewSearchService(cfg, nil).QueryURL(tt.barcode); got != tt.want {
					t.Errorf("QueryURL() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("Name", func(t *testing.T) {
		svc := NewSearchService(newTestConfig("https://www.google.com/search?q={query}"), nil)
		if svc.Name() != "www.google.com" {
			t.Errorf("expected host as name, got %q", svc.Name())
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		t.Run("returns first heading and query URL", func(t *testing.T) {
			var gotQuery, gotUA, gotCookie, gotExtra string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("q")
				gotUA = r.Header.Get("User-Agent")
				gotCookie = r.Header.Get("Cookie")
				gotExtra = r.Header.Get("Accept-Language")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				io.WriteString(w, resultsPage)
			}))
			defer server.Close()

			cfg := newTestConfig(server.URL + "/search?q={query}")
			cfg.UserAgent = "barcod-test"
			cfg.Cookie = "NID=abc"
			cfg.Headers = map[string]string{"Accept-Language": "en-US"}
			svc := NewSearchService(cfg, server.Client())

			result, err := svc.Lookup(context.Background(), "012345678905")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result.Snippet != "Widget X — Acme Co." {
				t.Errorf("expected first heading as snippet, got %q", result.Snippet)
			}
			if want := server.URL + "/search?q=012345678905%20product"; result.URL != want {
				t.Errorf("expected URL %q, got %q", want, result.URL)
			}
			if len(result.Headings) != 2 || result.Headings[1] != "Other" {
				t.Errorf("expected both headings in order, got %v", result.Headings)
			}
			if !result.Found() {
				t.Error("expected result to be found")
			}
			if result.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", result.StatusCode)
			}

			if gotQuery != "012345678905 product" {
				t.Errorf("server saw query %q", gotQuery)
			}
			if gotUA != "barcod-test" || gotCookie != "NID=abc" || gotExtra != "en-US" {
				t.Errorf("headers not sent: ua=%q cookie=%q lang=%q", gotUA, gotCookie, gotExtra)
			}
		})

		t.Run("normalizes whitespace and skips empty headings", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<h3>   </h3><h3>\n  Widget\n   Y  </h3>")
			}))
			defer server.Close()

			result, err := NewSearchService(newTestConfig(server.URL+"/?q={query}"), server.Client()).Lookup(context.Background(), "1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Snippet != "Widget Y" {
				t.Errorf("expected normalized snippet, got %q", result.Snippet)
			}
		})

		t.Run("custom selector", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `<h3>ignored</h3><span class="title">Gadget</span>`)
			}))
			defer server.Close()

			cfg := newTestConfig(server.URL + "/?q={query}")
			cfg.Selector = "span.title"
			result, err := NewSearchService(cfg, server.Client()).Lookup(context.Background(), "1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Snippet != "Gadget" {
				t.Errorf("expected Gadget, got %q", result.Snippet)
			}
		})

		t.Run("no headings yields empty result without URL", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<html><body><p>nothing here</p></body></html>")
			}))
			defer server.Close()

			result, err := NewSearchService(newTestConfig(server.URL+"/?q={query}"), server.Client()).Lookup(context.Background(), "012345678905")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Found() || result.URL != "" {
				t.Errorf("expected empty result, got %+v", result)
			}
		})

		t.Run("non-2xx status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "slow down", http.StatusTooManyRequests)
			}))
			defer server.Close()

			_, err := NewSearchService(newTestConfig(server.URL+"/?q={query}"), server.Client()).Lookup(context.Background(), "1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if err != nil && !strings.Contains(err.Error(), "429") {
				t.Errorf("expected status in error, got %v", err)
			}
		})

		t.Run("network error", func(t *testing.T) {
			transport := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			client := &http.Client{Transport: transport}
			svc := NewSearchService(newTestConfig("https://search.invalid/?q={query}"), client)

			result, err := svc.Lookup(context.Background(), "012345678905")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if result.Found() || result.URL != "" {
				t.Errorf("expected empty result on error, got %+v", result)
			}
			if n := len(transport.Requests()); n != 1 {
				t.Errorf("expected exactly one attempt without retries, got %d", n)
			}
		})

		t.Run("body read error", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: make(http.Header)}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

			_, err := NewSearchService(newTestConfig("https://search.invalid/?q={query}"), client).Lookup(context.Background(), "1")
			if err == nil {
				t.Error("expected error when body cannot be read")
			}
		})

		t.Run("deadline", func(t *testing.T) {
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer server.Close()
			defer close(release)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := NewSearchService(newTestConfig(server.URL+"/?q={query}"), server.Client()).Lookup(ctx, "1")
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("empty barcode", func(t *testing.T) {
			transport := tu.NewMockRoundTripper(nil, errors.New("should not be called"))
			client := &http.Client{Transport: transport}
			_, err := NewSearchService(newTestConfig("https://search.invalid/?q={query}"), client).Lookup(context.Background(), "  ")
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if len(transport.Requests()) != 0 {
				t.Error("expected no request for an empty barcode")
			}
		})
	})
}
