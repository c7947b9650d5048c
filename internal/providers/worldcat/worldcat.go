// Package worldcat scrapes publication dates from WorldCat catalogue pages.
//
// WorldCat has no open API for this, so the page is parsed as HTML and the
// text following a known label (for example "Publication date:") is taken as
// the date. This is the least reliable source and should sit late in the
// provider order.
package worldcat

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"isbndate/internal/providers"
)

// Name identifies the source in logs, config and results.
const Name = "worldcat"

// DefaultBaseURL is the public site root.
const DefaultBaseURL = "https://www.worldcat.org"

// DefaultMarkers are the labels that precede a date, tried in order.
var DefaultMarkers = []string{"Date:", "Fecha:", "Publication date:", "Fecha de publicación:"}

// Spec fetches /isbn/{isbn}.
type Spec struct {
	baseURL string
	markers []string
}

var _ providers.Spec = (*Spec)(nil)

// New returns a Spec rooted at baseURL. Empty markers selects DefaultMarkers.
func New(baseURL string, markers []string) *Spec {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Spec{baseURL: baseURL, markers: append([]string(nil), markers...)}
}

func (s *Spec) Name() string { return Name }

func (s *Spec) NewRequest(ctx context.Context, isbn string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/isbn/"+isbn, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	return req, nil
}

func (s *Spec) Extract(_ string, body []byte) (string, bool, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	texts := visibleText(doc)
	for _, marker := range s.markers {
		if date := findAfterMarker(texts, marker); date != "" {
			return date, true, nil
		}
	}
	return "", false, nil
}

// findAfterMarker returns the date-like characters between marker and the
// next tag. When the label sits in its own element the following text node
// is used instead.
func findAfterMarker(texts []string, marker string) string {
	for i, text := range texts {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		if date := dateChars(text[idx+len(marker):]); date != "" {
			return date
		}
		for j := i + 1; j < len(texts); j++ {
			if strings.TrimSpace(texts[j]) == "" {
				continue
			}
			if date := dateChars(texts[j]); date != "" {
				return date
			}
			break
		}
	}
	return ""
}

func dateChars(value string) string {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '-' || r == '/' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-/")
}

func visibleText(root *html.Node) []string {
	var texts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			texts = append(texts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return texts
}
