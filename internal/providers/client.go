package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"isbndate/internal/logging"
	"isbndate/internal/services"
)

const (
	defaultMaxRetries    = 3
	defaultBaseDelay     = time.Second
	defaultTimeout       = 10 * time.Second
	defaultTimeoutGrowth = 1.5
	maxBodyBytes         = 4 << 20
	errorSnippetBytes    = 200
)

// Spec describes how to ask one HTTP source for a date.
type Spec interface {
	Name() string
	NewRequest(ctx context.Context, isbn string) (*http.Request, error)
	// Extract reads a 200 response body. It reports found=false when the
	// payload is well formed but carries no date, and an error when the
	// payload cannot be interpreted.
	Extract(isbn string, body []byte) (date string, found bool, err error)
}

// RetryPolicy bounds the attempts made against one source.
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	Timeout       time.Duration
	TimeoutGrowth float64
}

// DefaultRetryPolicy returns three attempts, a 1s linear backoff unit and a
// 10s first-attempt timeout growing by 1.5x per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    defaultMaxRetries,
		BaseDelay:     defaultBaseDelay,
		Timeout:       defaultTimeout,
		TimeoutGrowth: defaultTimeoutGrowth,
	}
}

// TimeoutFor returns the per-request timeout of the 1-based attempt.
func (p RetryPolicy) TimeoutFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.Timeout) * math.Pow(p.TimeoutGrowth, float64(attempt-1)))
}

// DelayAfter returns the pause following the failed 1-based attempt.
func (p RetryPolicy) DelayAfter(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = defaultMaxRetries
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultTimeout
	}
	if p.TimeoutGrowth < 1 {
		p.TimeoutGrowth = defaultTimeoutGrowth
	}
	return p
}

// Client executes Specs with retries, backoff and optional rate limiting.
type Client struct {
	httpClient *http.Client
	userAgent  string
	policy     RetryPolicy
	sleeper    Sleeper
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Per-attempt timeouts are
// applied through the request context, so the client's own Timeout should
// be zero or generous.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy.normalized()
	}
}

// WithUserAgent sets the User-Agent header sent to every source.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "providers")
	}
}

// NewClient constructs a Client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		policy:     DefaultRetryPolicy(),
		sleeper:    SleepWithContext,
		logger:     logging.NewComponentLogger(nil, "providers"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Policy returns the effective retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Source adapts spec into a Source. requestsPerMinute <= 0 disables rate
// limiting for that source.
func (c *Client) Source(spec Spec, requestsPerMinute float64) Source {
	src := &httpSource{client: c, spec: spec}
	if requestsPerMinute > 0 {
		src.limiter = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)
	}
	return src
}

// Lookup asks spec for isbn, retrying transport failures. Parse failures are
// final for the source.
func (c *Client) Lookup(ctx context.Context, isbn string, spec Spec) Outcome {
	return c.lookup(ctx, isbn, spec, nil)
}

func (c *Client) lookup(ctx context.Context, isbn string, spec Spec, limiter *rate.Limiter) Outcome {
	name := spec.Name()
	ctx = services.WithProvider(ctx, name)
	logger := logging.WithContext(ctx, c.logger)
	attempts := c.policy.MaxRetries

	var lastErr error
	var trace []string
	for attempt := 1; attempt <= attempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				out := Failed(name, err)
				out.Trace = trace
				return out
			}
		}

		timeout := c.policy.TimeoutFor(attempt)
		started := time.Now()
		body, err := c.fetch(ctx, isbn, spec, timeout)
		latency := time.Since(started)
		if err == nil {
			out := c.interpret(isbn, spec, body)
			out.Trace = append(trace, fmt.Sprintf("%s: attempt %d/%d -> %s (%s)", name, attempt, attempts, describe(out), latency.Round(time.Millisecond)))
			logger.Debug("provider answered",
				logging.Int(logging.FieldAttempt, attempt),
				logging.String("status", out.Status.String()),
				logging.String("date", out.Date),
				logging.Duration("latency", latency))
			if out.Status == StatusError {
				logging.WarnWithContext(logger, "provider payload unreadable", "provider_parse_failed",
					logging.Error(out.Err),
					logging.String(logging.FieldErrorHint, "the source may have changed its response format"),
					logging.String(logging.FieldImpact, "falling back to the next source"))
			}
			return out
		}

		lastErr = err
		trace = append(trace, fmt.Sprintf("%s: attempt %d/%d failed after %s: %v", name, attempt, attempts, latency.Round(time.Millisecond), err))
		if ctx.Err() != nil {
			out := Failed(name, ctx.Err())
			out.Trace = trace
			return out
		}
		if attempt == attempts {
			break
		}
		delay := c.policy.DelayAfter(attempt)
		logger.Debug("provider attempt failed; retrying",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("timeout", timeout),
			logging.Duration("retry_in", delay),
			logging.Error(err))
		if err := c.sleeper(ctx, delay); err != nil {
			out := Failed(name, err)
			out.Trace = trace
			return out
		}
	}

	wrapped := services.Wrap(services.ErrProviderTransport, name, "lookup",
		fmt.Sprintf("failed after %d attempts", attempts), lastErr)
	logging.WarnWithContext(logger, "provider unreachable", "provider_retries_exhausted",
		logging.Int(logging.FieldAttempt, attempts),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "check network access or raise providers.timeout_seconds"),
		logging.String(logging.FieldImpact, "falling back to the next source"))
	out := Failed(name, wrapped)
	out.Trace = trace
	return out
}

func (c *Client) interpret(isbn string, spec Spec, body []byte) Outcome {
	name := spec.Name()
	date, found, err := spec.Extract(isbn, body)
	switch {
	case err != nil:
		return Failed(name, services.Wrap(services.ErrProviderParse, name, "extract", "decode response", err))
	case !found:
		return NotFound(name)
	default:
		return Found(name, strings.TrimSpace(date))
	}
}

func (c *Client) fetch(ctx context.Context, isbn string, spec Spec, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := spec.NewRequest(attemptCtx, isbn)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request (timeout=%s): %w", timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body (timeout=%s): %w", timeout, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from a transport error, if any.
func StatusCode(err error) (int, bool) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > errorSnippetBytes {
		text = text[:errorSnippetBytes] + "..."
	}
	return strings.Join(strings.Fields(text), " ")
}

func describe(out Outcome) string {
	switch out.Status {
	case StatusFound:
		return "found " + out.Date
	case StatusError:
		return "error: " + out.Err.Error()
	default:
		return "no date"
	}
}

type httpSource struct {
	client  *Client
	spec    Spec
	limiter *rate.Limiter
}

func (s *httpSource) Name() string {
	return s.spec.Name()
}

func (s *httpSource) Lookup(ctx context.Context, isbn string) Outcome {
	return s.client.lookup(ctx, isbn, s.spec, s.limiter)
}
