// Package googlebooks looks up publication dates through the Google Books
// volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"isbndate/internal/providers"
)

// Name identifies the source in logs, config and results.
const Name = "googlebooks"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			PublishedDate *string `json:"publishedDate"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Spec queries /volumes?q=isbn:{isbn}.
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
	params.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Extract reads items[0].volumeInfo.publishedDate. A match without a date is
// still a match and reports providers.UnknownDate.
func (s *Spec) Extract(_ string, body []byte) (string, bool, error) {
	var payload volumesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, err
	}
	if payload.TotalItems <= 0 || len(payload.Items) == 0 {
		return "", false, nil
	}
	published := payload.Items[0].VolumeInfo.PublishedDate
	if published == nil || strings.TrimSpace(*published) == "" {
		return providers.UnknownDate, true, nil
	}
	return providers.FormatDate(strings.TrimSpace(*published)), true, nil
}
