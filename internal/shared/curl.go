// Utilities for importing browser request headers from a cURL command.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// skippedHeaders are never replayed: the transport owns them, and setting
// accept-encoding by hand turns off transparent gzip decoding.
var skippedHeaders = map[string]bool{
	"accept-encoding": true,
	"content-length":  true,
	"content-type":    true,
	"connection":      true,
	"host":            true,
	"cookie":          true,
}

// RequestHeaders represents parsed headers and cookies from a cURL command.
type RequestHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*RequestHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a browser "Copy as cURL" command and extracts replayable headers.
//
// A -b/--cookie flag wins over a Cookie header.
func ParseCurlCommand(curlCmd string) (*RequestHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\\r\n", " ")

	headers := make(map[string]string)
	var headerCookie string

	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		line := firstGroup(match)

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		lower := strings.ToLower(key)

		if lower == "cookie" && headerCookie == "" {
			headerCookie = value
		}
		if key == "" || strings.HasPrefix(key, ":") || skippedHeaders[lower] {
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if match := curlCookieRegex.FindStringSubmatch(curlCmd); match != nil {
		cookie = firstGroup(match)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return &RequestHeaders{Headers: headers, Cookie: cookie}, nil
}

// Apply sets the parsed headers and cookie on h, overwriting existing values.
func (r *RequestHeaders) Apply(h http.Header) {
	for key, value := range r.Headers {
		h.Set(key, value)
	}
	if r.Cookie != "" {
		h.Set("Cookie", r.Cookie)
	}
}

// MergeInto copies the parsed headers into a [SearchConfig], keeping a user agent header as the dedicated field.
func (r *RequestHeaders) MergeInto(cfg *SearchConfig) {
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	for key, value := range r.Headers {
		if strings.EqualFold(key, "user-agent") {
			cfg.UserAgent = value
			continue
		}
		cfg.Headers[key] = value
	}
	if r.Cookie != "" {
		cfg.Cookie = r.Cookie
	}
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
