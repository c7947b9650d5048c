package providers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"isbndate/internal/providers"
	"isbndate/internal/services"
)

type stubSpec struct {
	baseURL string
	extract func(isbn string, body []byte) (string, bool, error)
}

func (s stubSpec) Name() string { return "stub" }

func (s stubSpec) NewRequest(ctx context.Context, isbn string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/lookup/"+isbn, nil)
}

func (s stubSpec) Extract(isbn string, body []byte) (string, bool, error) {
	if s.extract != nil {
		return s.extract(isbn, body)
	}
	text := strings.TrimSpace(string(body))
	switch text {
	case "":
		return "", false, nil
	case "garbage":
		return "", false, errors.New("unexpected payload")
	default:
		return text, true, nil
	}
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newClient(sleeper *recordingSleeper, policy providers.RetryPolicy) *providers.Client {
	return providers.NewClient(
		providers.WithRetryPolicy(policy),
		providers.WithSleeper(sleeper.sleep),
		providers.WithUserAgent("isbndate-test"),
	)
}

func TestLookupFoundOnFirstAttempt(t *testing.T) {
	var agent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.Header.Get("User-Agent"))
		if r.URL.Path != "/lookup/9780306406157" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("2004"))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	client := newClient(sleeper, providers.DefaultRetryPolicy())
	out := client.Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})

	if out.Status != providers.StatusFound || out.Date != "2004" || out.Provider != "stub" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("expected no backoff, got %v", sleeper.delays)
	}
	if agent.Load() != "isbndate-test" {
		t.Fatalf("expected user agent header, got %v", agent.Load())
	}
	if len(out.Trace) != 1 {
		t.Fatalf("expected one trace line, got %v", out.Trace)
	}
}

func TestLookupRetriesTransportFailuresWithLinearBackoff(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("2019"))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	policy := providers.RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, Timeout: 5 * time.Second, TimeoutGrowth: 1.5}
	out := newClient(sleeper, policy).Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})

	if out.Status != providers.StatusFound || out.Date != "2019" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if fmt.Sprint(sleeper.delays) != fmt.Sprint(want) {
		t.Fatalf("unexpected backoff delays %v, want %v", sleeper.delays, want)
	}
	if len(out.Trace) != 3 {
		t.Fatalf("expected a trace line per attempt, got %v", out.Trace)
	}
}

func TestLookupExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	policy := providers.RetryPolicy{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, Timeout: time.Second, TimeoutGrowth: 1.5}
	out := newClient(sleeper, policy).Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})

	if out.Status != providers.StatusError {
		t.Fatalf("expected error outcome, got %+v", out)
	}
	if !errors.Is(out.Err, services.ErrProviderTransport) {
		t.Fatalf("expected transport marker, got %v", out.Err)
	}
	if code, ok := providers.StatusCode(out.Err); !ok || code != http.StatusInternalServerError {
		t.Fatalf("expected wrapped http 500, got %d %v", code, ok)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	if len(sleeper.delays) != 2 {
		t.Fatalf("expected no sleep after the last attempt, got %v", sleeper.delays)
	}
}

func TestLookupDoesNotRetryParseFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("garbage"))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	out := newClient(sleeper, providers.DefaultRetryPolicy()).Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})

	if out.Status != providers.StatusError || !errors.Is(out.Err, services.ErrProviderParse) {
		t.Fatalf("expected parse error outcome, got %+v", out)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestLookupEmptyAnswerIsNotFoundWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	out := newClient(&recordingSleeper{}, providers.DefaultRetryPolicy()).Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})
	if out.Status != providers.StatusNotFound {
		t.Fatalf("expected not found, got %+v", out)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestLookupTimesOutSlowSource(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	sleeper := &recordingSleeper{}
	policy := providers.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Timeout: 50 * time.Millisecond, TimeoutGrowth: 1.5}
	out := newClient(sleeper, policy).Lookup(context.Background(), "9780306406157", stubSpec{baseURL: server.URL})
	if out.Status != providers.StatusError || !errors.Is(out.Err, services.ErrProviderTransport) {
		t.Fatalf("expected transport failure, got %+v", out)
	}
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded cause, got %v", out.Err)
	}
}

func TestLookupStopsWhenContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := providers.NewClient(providers.WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	out := client.Lookup(ctx, "9780306406157", stubSpec{baseURL: server.URL})
	if out.Status != providers.StatusError || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected cancellation outcome, got %+v", out)
	}
}

func TestRetryPolicyGrowth(t *testing.T) {
	policy := providers.DefaultRetryPolicy()
	if policy.TimeoutFor(1) != 10*time.Second {
		t.Fatalf("unexpected first timeout %s", policy.TimeoutFor(1))
	}
	if policy.TimeoutFor(2) != 15*time.Second {
		t.Fatalf("unexpected second timeout %s", policy.TimeoutFor(2))
	}
	if policy.TimeoutFor(3) != 22500*time.Millisecond {
		t.Fatalf("unexpected third timeout %s", policy.TimeoutFor(3))
	}
	if policy.DelayAfter(1) != time.Second || policy.DelayAfter(2) != 2*time.Second {
		t.Fatalf("unexpected linear delays %s %s", policy.DelayAfter(1), policy.DelayAfter(2))
	}
}

func TestSourceAppliesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("2004"))
	}))
	defer server.Close()

	client := newClient(&recordingSleeper{}, providers.DefaultRetryPolicy())
	src := client.Source(stubSpec{baseURL: server.URL}, 600) // one request per 100ms
	if src.Name() != "stub" {
		t.Fatalf("unexpected name %q", src.Name())
	}

	started := time.Now()
	for i := 0; i < 3; i++ {
		if out := src.Lookup(context.Background(), "9780306406157"); out.Status != providers.StatusFound {
			t.Fatalf("unexpected outcome %+v", out)
		}
	}
	if elapsed := time.Since(started); elapsed < 150*time.Millisecond {
		t.Fatalf("expected rate limit to space requests, took %s", elapsed)
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2004":          "2004",
		"2020-03-15":    "15-03-20",
		"1999-12-31T00": "31-12-99",
		"2020-03":       "2020-03",
		"March 2020":    "March 2020",
		"":              "",
	}
	for in, want := range cases {
		if got := providers.FormatDate(in); got != want {
			t.Fatalf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}
