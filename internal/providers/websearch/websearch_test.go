package websearch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"isbndate/internal/providers"
	"isbndate/internal/providers/websearch"
)

func TestExtractPatterns(t *testing.T) {
	spec := websearch.New("")
	cases := map[string]string{
		"El libro fue Publicado en 1998 por":       "1998",
		"Fecha de publicación: 2015":               "2015",
		"fecha de publicación 2016":                "2016",
		"Hardcover, 2003 Edition":                  "2003",
		"Año de publicación:   2011":               "2011",
	}
	for body, want := range cases {
		date, found, err := spec.Extract("9780306406157", []byte(body))
		if err != nil || !found || date != want {
			t.Fatalf("Extract(%q) = (%q, %v, %v), want %q", body, date, found, err, want)
		}
	}
	if _, found, _ := spec.Extract("9780306406157", []byte("no years here")); found {
		t.Fatal("expected no match")
	}
}

func TestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "libro isbn 9780306406157 fecha publicación" {
			t.Errorf("unexpected query %q", got)
		}
		_, _ = w.Write([]byte("publicado en 2002"))
	}))
	defer server.Close()

	out := providers.NewClient().Lookup(context.Background(), "9780306406157", websearch.New(server.URL))
	if out.Status != providers.StatusFound || out.Date != "2002" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
