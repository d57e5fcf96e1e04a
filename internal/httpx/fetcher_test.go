package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agenthub-labs/agenthub/internal/auth"
)

// newTestFetcher returns a Fetcher whose backoff sleeps are recorded
// instead of performed.
func newTestFetcher(t *testing.T, opts ...Option) (*Fetcher, *[]time.Duration) {
	t.Helper()
	var slept []time.Duration
	f := New(opts...)
	f.sleep = func(d time.Duration) { slept = append(slept, d) }
	return f, &slept
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t)
	body, err := f.FetchText(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if body != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
	// Backoff doubles from the initial delay.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestFetchClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL, Request{})
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
	if !httpErr.Terminal() {
		t.Error("404 should be terminal")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on 4xx)", calls.Load())
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no sleeps", *slept)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL, Request{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 4 {
		t.Errorf("server saw %d calls, want 4 (1 attempt + 3 retries)", calls.Load())
	}
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("error = %v, want last observed 502", err)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, slept := newTestFetcher(t, WithRetryPolicy(RetryPolicy{
		MaxRetries:   5,
		InitialDelay: 4 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}))
	_, _ = f.Fetch(context.Background(), srv.URL, Request{})

	want := []time.Duration{4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second, 10 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestAuthHeaderInjection(t *testing.T) {
	tests := []struct {
		name      string
		auth      *auth.Config
		env       map[string]string
		wantAuthz string
	}{
		{
			name:      "bearer literal",
			auth:      &auth.Config{Type: auth.TypeBearer, Token: "tok123"},
			wantAuthz: "Bearer tok123",
		},
		{
			name:      "bearer env reference substituted at request time",
			auth:      &auth.Config{Type: auth.TypeBearer, Token: "${env:CATALOG_TOKEN}"},
			env:       map[string]string{"CATALOG_TOKEN": "envtok"},
			wantAuthz: "Bearer envtok",
		},
		{
			name:      "bearer env reference missing sends no header",
			auth:      &auth.Config{Type: auth.TypeBearer, Token: "${env:MISSING}"},
			wantAuthz: "",
		},
		{
			name:      "unresolved secret reference sends no header",
			auth:      &auth.Config{Type: auth.TypeBearer, Token: "${secret:missing}"},
			wantAuthz: "",
		},
		{
			name:      "basic auth encodes user and password",
			auth:      &auth.Config{Type: auth.TypeBasic, Username: "u", Password: "p"},
			wantAuthz: "Basic dTpw",
		},
		{
			name:      "no auth",
			auth:      nil,
			wantAuthz: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuthz, gotUA string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuthz = r.Header.Get("Authorization")
				gotUA = r.Header.Get("User-Agent")
			}))
			defer srv.Close()

			f, _ := newTestFetcher(t, WithEnv(func(k string) string { return tt.env[k] }))
			resp, err := f.Fetch(context.Background(), srv.URL, Request{Auth: tt.auth})
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			resp.Body.Close()

			if gotAuthz != tt.wantAuthz {
				t.Errorf("Authorization = %q, want %q", gotAuthz, tt.wantAuthz)
			}
			if gotUA == "" {
				t.Error("User-Agent header not set")
			}
		})
	}
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"demo","count":2}`))
	}))
	defer srv.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	f, _ := newTestFetcher(t)
	got, err := FetchJSON[payload](context.Background(), f, srv.URL, Request{})
	if err != nil {
		t.Fatalf("FetchJSON: %v", err)
	}
	if got.Name != "demo" || got.Count != 2 {
		t.Errorf("payload = %+v", got)
	}
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
	}))

	f, _ := newTestFetcher(t)
	if res := f.TestConnection(context.Background(), srv.URL, nil); !res.Success {
		t.Errorf("TestConnection = %+v, want success", res)
	}

	srv.Close()
	if res := f.TestConnection(context.Background(), srv.URL, nil); res.Success || res.Error == "" {
		t.Errorf("TestConnection after close = %+v, want failure with message", res)
	}
}
