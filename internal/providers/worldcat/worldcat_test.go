package worldcat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"isbndate/internal/providers"
	"isbndate/internal/providers/worldcat"
)

func TestExtract(t *testing.T) {
	spec := worldcat.New("", nil)
	cases := []struct {
		name  string
		body  string
		date  string
		found bool
	}{
		{"inline", `<html><body><p>Publication date: 2004</p></body></html>`, "2004", true},
		{"separate element", `<dl><dt>Fecha de publicación:</dt><dd> 15/03/2020 </dd></dl>`, "15/03/2020", true},
		{"stops at tag", `<span>Date: 1999<b>extra 42</b></span>`, "1999", true},
		{"spanish", `<div>Fecha: 2010-05</div>`, "2010-05", true},
		{"script ignored", `<script>var x = "Date: 1234";</script><p>nothing</p>`, "", false},
		{"no marker", `<p>Some book page</p>`, "", false},
		{"marker without digits", `<p>Date: unknown</p><p>Edition</p>`, "", false},
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

func TestCustomMarkers(t *testing.T) {
	spec := worldcat.New("", []string{"Published:"})
	date, found, err := spec.Extract("9780306406157", []byte(`<p>Date: 2004</p><p>Published: 2001</p>`))
	if err != nil || !found || date != "2001" {
		t.Fatalf("got (%q, %v, %v)", date, found, err)
	}
}

func TestLookupPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isbn/9780306406157" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`<html><body>Date: 2004</body></html>`))
	}))
	defer server.Close()

	out := providers.NewClient().Lookup(context.Background(), "9780306406157", worldcat.New(server.URL, nil))
	if out.Status != providers.StatusFound || out.Date != "2004" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
