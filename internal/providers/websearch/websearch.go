// Package websearch extracts a publication year from a web search results
// page. It is a heuristic of last resort and disabled by default.
package websearch

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"isbndate/internal/providers"
)

// Name identifies the source in logs, config and results.
const Name = "websearch"

// DefaultBaseURL is the search engine root.
const DefaultBaseURL = "https://www.google.com"

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)publicado en (\d{4})`),
	regexp.MustCompile(`(?i)fecha de publicación[:\s]+(\d{4})`),
	regexp.MustCompile(`(?i)(\d{4})\s*edition`),
	regexp.MustCompile(`(?i)publicación:\s*(\d{4})`),
}

// Spec queries /search?q=libro isbn {isbn} fecha publicación.
type Spec struct {
	baseURL string
}

var _ providers.Spec = (*Spec)(nil)

// New returns a Spec rooted at baseURL.
func New(baseURL string) *Spec {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Spec{baseURL: baseURL}
}

func (s *Spec) Name() string { return Name }

func (s *Spec) NewRequest(ctx context.Context, isbn string) (*http.Request, error) {
	params := url.Values{}
	params.Set("q", "libro isbn "+isbn+" fecha publicación")
	return http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
}

// Extract returns the first year matched by the patterns, in pattern order.
func (s *Spec) Extract(_ string, body []byte) (string, bool, error) {
	for _, pattern := range yearPatterns {
		if match := pattern.FindSubmatch(body); match != nil {
			return string(match[1]), true, nil
		}
	}
	return "", false, nil
}
