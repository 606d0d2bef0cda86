package httpcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tagnet-dev/tagnet/profile"
)

func TestURLToKey(t *testing.T) {
	a := URLToKey("https://example.com/a")
	b := URLToKey("https://example.com/b")
	if a == b {
		t.Error("different URLs should produce different keys")
	}
	if a != URLToKey("https://example.com/a") {
		t.Error("key derivation should be deterministic")
	}
}

func TestHTTPErrorRateLimited(t *testing.T) {
	err := error(&HTTPError{URL: "https://example.com", StatusCode: http.StatusTooManyRequests})
	if !errors.Is(err, profile.ErrRateLimited) {
		t.Error("429 should unwrap to ErrRateLimited")
	}

	err = &HTTPError{URL: "https://example.com", StatusCode: http.StatusInternalServerError}
	if errors.Is(err, profile.ErrRateLimited) {
		t.Error("500 should not unwrap to ErrRateLimited")
	}
}

func TestFetchURLCachesSuccess(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	cache, err := New(time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	for range 3 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		body, err := FetchURL(ctx, cache, srv.Client(), req, nil)
		if err != nil {
			t.Fatalf("FetchURL: %v", err)
		}
		if string(body) != `{"ok":true}` {
			t.Errorf("body = %q", body)
		}
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hit %d times, want 1 (cached)", got)
	}
}

func TestFetchURLDoesNotCacheErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache, err := New(time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	for range 2 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		if _, err := FetchURL(ctx, cache, srv.Client(), req, nil); err == nil {
			t.Fatal("FetchURL should fail on 503")
		}
	}

	if got := hits.Load(); got != 2 {
		t.Errorf("upstream hit %d times, want 2 (errors not cached)", got)
	}
}
