package openlibrary_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"isbndate/internal/providers"
	"isbndate/internal/providers/openlibrary"
)

func TestExtract(t *testing.T) {
	spec := openlibrary.New("")
	cases := []struct {
		name  string
		body  string
		date  string
		found bool
	}{
		{"prose date", `{"ISBN:9780306406157":{"title":"x","publish_date":"March 15, 2020"}}`, "15-03-20", true},
		{"year", `{"ISBN:9780306406157":{"publish_date":"2004"}}`, "2004", true},
		{"month year", `{"ISBN:9780306406157":{"publish_date":"March 2020"}}`, "March 2020", true},
		{"no date", `{"ISBN:9780306406157":{"title":"x"}}`, "", false},
		{"unknown", `{}`, "", false},
		{"other key", `{"ISBN:9788408123453":{"publish_date":"2004"}}`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date, found, err := spec.Extract("9780306406157", []byte(tc.body))
			if err != nil {
				t.Fatalf("Extract returned error: %v", err)
			}
			if date != tc.date || found != tc.found {
				t.Fatalf("got (%q, %v), want (%q, %v)", date, found, tc.date, tc.found)
			}
		})
	}
}

func TestRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/api/books" || q.Get("bibkeys") != "ISBN:9780306406157" || q.Get("format") != "json" || q.Get("jscmd") != "data" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"ISBN:9780306406157":{"publish_date":"1998"}}`))
	}))
	defer server.Close()

	out := providers.NewClient().Lookup(context.Background(), "9780306406157", openlibrary.New(server.URL+"/"))
	if out.Status != providers.StatusFound || out.Date != "1998" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
