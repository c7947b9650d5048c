// Package openlibrary looks up publication dates through the Open Library
// books API.
package openlibrary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"isbndate/internal/providers"
)

// Name identifies the source in logs, config and results.
const Name = "openlibrary"

// DefaultBaseURL is the public site root.
const DefaultBaseURL = "https://openlibrary.org"

// Open Library publishes free-form dates; these layouts cover most records.
var dateLayouts = []string{"January 2, 2006", "Jan 2, 2006", "2 January 2006", "2006-01-02"}

type book struct {
	PublishDate string `json:"publish_date"`
}

// Spec queries /api/books?bibkeys=ISBN:{isbn}&format=json&jscmd=data.
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
	params.Set("bibkeys", "ISBN:"+isbn)
	params.Set("format", "json")
	params.Set("jscmd", "data")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/books?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Extract reads the publish_date of the ISBN:{isbn} record. The API answers
// {} for unknown identifiers.
func (s *Spec) Extract(isbn string, body []byte) (string, bool, error) {
	var payload map[string]book
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, err
	}
	record, ok := payload["ISBN:"+isbn]
	if !ok {
		return "", false, nil
	}
	date := strings.TrimSpace(record.PublishDate)
	if date == "" {
		return "", false, nil
	}
	return providers.FormatDate(toISO(date)), true, nil
}

// toISO rewrites prose dates such as "March 15, 2020" as 2020-03-15 so they
// share the DD-MM-YY output format. Bare years, "March 2020" and unknown
// layouts pass through.
func toISO(value string) string {
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return parsed.Format("2006-01-02")
	}
	return value
}
