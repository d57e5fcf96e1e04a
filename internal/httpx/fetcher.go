package httpx

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/agenthub-labs/agenthub/internal/auth"
	"github.com/agenthub-labs/agenthub/internal/branding"
)

// RetryPolicy bounds the retry loop. MaxRetries counts retries, not
// attempts: the default of 3 yields 4 total attempts.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the catalog protocol defaults: 3 retries,
// 1s initial delay doubling per attempt, capped at 10s.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   3,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2,
}

// HTTPError is a non-2xx response. 4xx errors are terminal and never
// retried.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// Terminal reports whether the error indicates client-side
// misconfiguration that retrying cannot fix.
func (e *HTTPError) Terminal() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Request carries the per-call options for Fetch.
type Request struct {
	Method  string
	Headers map[string]string
	Body    []byte
	Auth    *auth.Config
}

// ConnectionResult is the outcome of TestConnection. Failures are data,
// not errors, so callers can render them directly.
type ConnectionResult struct {
	Success bool
	Error   string
}

// Fetcher performs HTTP requests with auth injection and bounded
// exponential-backoff retry.
type Fetcher struct {
	client *http.Client
	policy RetryPolicy
	logger *slog.Logger
	getenv func(string) string
	sleep  func(time.Duration)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets the structured logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithEnv overrides environment lookup for ${env:VAR} token references.
func WithEnv(getenv func(string) string) Option {
	return func(f *Fetcher) { f.getenv = getenv }
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: http.DefaultClient,
		policy: DefaultRetryPolicy,
		logger: slog.Default(),
		getenv: os.Getenv,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs the request with retry. The caller owns the response
// body on success.
func (f *Fetcher) Fetch(ctx context.Context, url string, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	headers := map[string]string{
		"User-Agent": branding.UserAgent(),
		"Accept":     "application/json, text/plain, */*",
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if authz := f.authorizationHeader(req.Auth); authz != "" {
		headers["Authorization"] = authz
	}

	var lastErr error
	delay := f.policy.InitialDelay

	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retrying fetch",
				"url", url, "attempt", attempt, "delay", delay)
			f.sleep(delay)
			delay = time.Duration(float64(delay) * f.policy.Multiplier)
			if delay > f.policy.MaxDelay {
				delay = f.policy.MaxDelay
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(req.Body))
		if err != nil {
			return nil, fmt.Errorf("creating request for %s: %w", url, err)
		}
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}

		resp, err := f.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("fetching %s: %w", url, err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		resp.Body.Close()
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, URL: url}
		if httpErr.Terminal() {
			return nil, httpErr
		}
		lastErr = httpErr
	}

	return nil, lastErr
}

// FetchText performs the request and returns the response body as a
// string.
func (f *Fetcher) FetchText(ctx context.Context, url string, req Request) (string, error) {
	resp, err := f.Fetch(ctx, url, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", url, err)
	}
	return string(body), nil
}

// FetchJSON performs the request and decodes the response body into T.
func FetchJSON[T any](ctx context.Context, f *Fetcher, url string, req Request) (*T, error) {
	resp, err := f.Fetch(ctx, url, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return &out, nil
}

// TestConnection performs a HEAD request and converts any failure into
// a structured result rather than an error.
func (f *Fetcher) TestConnection(ctx context.Context, url string, authCfg *auth.Config) ConnectionResult {
	resp, err := f.Fetch(ctx, url, Request{Method: http.MethodHead, Auth: authCfg})
	if err != nil {
		return ConnectionResult{Success: false, Error: err.Error()}
	}
	resp.Body.Close()
	return ConnectionResult{Success: true}
}

// authorizationHeader builds the Authorization header value for the
// given auth config. ${env:VAR} references are substituted here, at
// request time, so environment credentials never live in any longer-
// lived structure. A reference that resolves to nothing yields no
// header: the request goes out unauthenticated and the server decides.
func (f *Fetcher) authorizationHeader(cfg *auth.Config) string {
	if cfg == nil || cfg.Type == auth.TypeNone {
		return ""
	}

	switch cfg.Type {
	case auth.TypeBearer:
		token := f.substituteEnv(cfg.Token)
		if token == "" || auth.SecretRef(token) != "" {
			return ""
		}
		return "Bearer " + token
	case auth.TypeBasic:
		if cfg.Username == "" {
			return ""
		}
		password := f.substituteEnv(cfg.Password)
		if auth.SecretRef(password) != "" {
			return ""
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + password))
		return "Basic " + encoded
	}
	return ""
}

func (f *Fetcher) substituteEnv(value string) string {
	if name := auth.EnvRef(value); name != "" {
		return f.getenv(name)
	}
	return value
}
