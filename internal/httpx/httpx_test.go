package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

// catalogServer answers each request with the next status in statuses (the
// last one repeats) and counts the hits.
func catalogServer(t *testing.T, body string, headers map[string]string, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func getJSON(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		r.Header.Set("Accept", "application/json")
		r.Header.Set("Accept-Encoding", "br, gzip")
		return r, nil
	}
}

// fastRetries keeps the attempt count of cfg but shortens the backoff.
func fastRetries(cfg RetryConfig) RetryConfig {
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	return cfg
}

func TestSingleAttemptNeverRetries(t *testing.T) {
	srv, hits := catalogServer(t, `{"error":"unavailable"}`, map[string]string{"Retry-After": "5"},
		http.StatusServiceUnavailable, http.StatusOK)

	start := time.Now()
	_, _, err := DoWithRetry(context.Background(), srv.Client(), getJSON(srv.URL), SingleAttempt())
	elapsed := time.Since(start)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", httpErr.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected exactly 1 request, got %d", got)
	}
	if elapsed > time.Second {
		t.Errorf("Expected no backoff sleep, took %v", elapsed)
	}
}

func TestAttemptsConfigIsHonoured(t *testing.T) {
	testCases := []struct {
		name     string
		attempts int
		statuses []int
		wantHits int32
		wantErr  bool
	}{
		{"zero means one attempt", 0, []int{503}, 1, true},
		{"one attempt", 1, []int{503}, 1, true},
		{"gives up after n", 2, []int{503}, 2, true},
		{"succeeds on last attempt", 3, []int{503, 502, 200}, 3, false},
		{"stops at first success", 5, []int{503, 200}, 2, false},
		{"client errors are not retried", 3, []int{404}, 1, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, hits := catalogServer(t, `[]`, nil, tc.statuses...)

			_, body, err := DoWithRetry(context.Background(), srv.Client(), getJSON(srv.URL), fastRetries(AttemptsConfig(tc.attempts)))

			if tc.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				if string(body) != `[]` {
					t.Errorf("Expected body [], got %q", body)
				}
			}
			if got := hits.Load(); got != tc.wantHits {
				t.Errorf("Expected %d requests, got %d", tc.wantHits, got)
			}
		})
	}
}

func TestRetryBackoffStopsOnCancel(t *testing.T) {
	srv, hits := catalogServer(t, ``, map[string]string{"Retry-After": "30"}, http.StatusServiceUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := DoWithRetry(ctx, srv.Client(), getJSON(srv.URL), AttemptsConfig(3))

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("Expected 1 request before the backoff, got %d", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected the Retry-After wait to be abandoned, took %v", elapsed)
	}
}

func compress(t *testing.T, encoding, s string) string {
	t.Helper()
	var buf bytes.Buffer
	switch encoding {
	case "br":
		w := brotli.NewWriter(&buf)
		_, _ = w.Write([]byte(s))
		if err := w.Close(); err != nil {
			t.Fatalf("brotli: %v", err)
		}
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, _ = w.Write([]byte(s))
		if err := w.Close(); err != nil {
			t.Fatalf("gzip: %v", err)
		}
	default:
		buf.WriteString(s)
	}
	return buf.String()
}

func TestResponseBodiesAreDecoded(t *testing.T) {
	const payload = `[{"id":"otm-1","name":{"fi":"Ohjelmointi 1"}}]`

	for _, encoding := range []string{"", "gzip", "br"} {
		for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
			name := encoding
			if name == "" {
				name = "identity"
			}
			t.Run(name+"/"+http.StatusText(status), func(t *testing.T) {
				headers := map[string]string{"Content-Type": "application/json"}
				if encoding != "" {
					headers["Content-Encoding"] = encoding
				}
				srv, _ := catalogServer(t, compress(t, encoding, payload), headers, status)

				_, body, err := DoWithRetry(context.Background(), srv.Client(), getJSON(srv.URL), SingleAttempt())

				if status == http.StatusOK {
					if err != nil {
						t.Fatalf("Expected no error, got %v", err)
					}
					if string(body) != payload {
						t.Errorf("Expected decoded body %q, got %q", payload, body)
					}
					return
				}

				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("Expected HTTPError, got %v", err)
				}
				if string(httpErr.Body) != payload {
					t.Errorf("Expected decoded error body %q, got %q", payload, httpErr.Body)
				}
				if !strings.Contains(err.Error(), "Ohjelmointi 1") {
					t.Errorf("Expected error text to carry the body, got %q", err.Error())
				}
			})
		}
	}
}

func TestCorruptGzipBody(t *testing.T) {
	srv, _ := catalogServer(t, "not gzip", map[string]string{"Content-Encoding": "gzip"}, http.StatusOK)

	_, _, err := DoWithRetry(context.Background(), srv.Client(), getJSON(srv.URL), SingleAttempt())
	if err == nil || !strings.Contains(err.Error(), "gzip body") {
		t.Errorf("Expected gzip error, got %v", err)
	}
}

func TestDoJSONDecodesCatalogResponse(t *testing.T) {
	srv, _ := catalogServer(t, compress(t, "br", `{"searchResults":[{"id":"P"}]}`),
		map[string]string{"Content-Encoding": "br"}, http.StatusOK)

	var out any
	if err := DoJSON(context.Background(), srv.Client(), getJSON(srv.URL), &out, SingleAttempt()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	results, ok := out.(map[string]any)["searchResults"].([]any)
	if !ok || len(results) != 1 {
		t.Errorf("Expected one search result, got %#v", out)
	}
}

func TestDoJSONParseErrorCarriesBody(t *testing.T) {
	srv, _ := catalogServer(t, `<html>maintenance</html>`, nil, http.StatusOK)

	var out any
	err := DoJSON(context.Background(), srv.Client(), getJSON(srv.URL), &out, SingleAttempt())

	if err == nil {
		t.Fatal("Expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), "json parse error") || !strings.Contains(err.Error(), "<html>maintenance</html>") {
		t.Errorf("Expected parse error with body snippet, got %q", err.Error())
	}
	if out != nil {
		t.Errorf("Expected nothing decoded, got %#v", out)
	}
}
