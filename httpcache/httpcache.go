// Package httpcache provides in-run HTTP response caching with single-flight
// fetching. Responses are held in the memory tier only; nothing survives the
// process, which keeps repeated lookups within one crawl cheap without
// persisting upstream data across runs.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"

	"github.com/tagnet-dev/tagnet/profile"
)

// UserAgent is the browser User-Agent sent with every upstream request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

const maxBodySize = 4 << 20

// Cacher allows external cache implementations for sharing across packages.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// New creates a memory-only Cache. The null store discards everything the
// memory tier evicts, so entries live at most one process run.
func New(ttl time.Duration) (*Cache, error) {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte](), sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents a non-200 HTTP response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Unwrap maps 429 responses onto the shared rate limit sentinel so callers
// can classify with errors.Is.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return profile.ErrRateLimited
	}
	return nil
}

// FetchURL fetches a URL with caching and single-flight deduplication.
// Failed fetches are returned to the caller but never cached, so a retried
// call hits the upstream again.
func FetchURL(ctx context.Context, cache Cacher, client *http.Client, req *http.Request, logger *slog.Logger) ([]byte, error) {
	if cache == nil {
		return doFetch(client, req)
	}

	var wasFetched bool
	data, err := cache.GetSet(ctx, URLToKey(req.URL.String()), func(context.Context) ([]byte, error) {
		wasFetched = true
		if logger != nil {
			logger.Debug("cache miss", "url", req.URL.String())
		}
		return doFetch(client, req)
	}, cache.TTL())
	if err != nil {
		return nil, err
	}

	if !wasFetched && logger != nil {
		logger.Debug("cache hit", "url", req.URL.String())
	}
	return data, nil
}

func doFetch(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // error ignored intentionally

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}
