// Package instagram implements the upstream profile directory: hashtag
// search, profile lookup and paginated follower listing against the private
// web API (requires a session cookie).
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tagnet-dev/tagnet/auth"
	"github.com/tagnet-dev/tagnet/httpcache"
	"github.com/tagnet-dev/tagnet/profile"
)

// ErrNoSession is returned by New when no session cookie is available.
var ErrNoSession = errors.New("instagram session cookie required")

const (
	defaultBaseURL = "https://www.instagram.com"
	appID          = "936619743392459"
	asbdID         = "129477"

	followersPerPage = 100

	// Floor between any two requests, independent of the crawler's own
	// randomized pacing.
	defaultMinInterval = 1100 * time.Millisecond
)

// Client handles requests against the upstream web API.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	limiter    *rate.Limiter
	baseURL    string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cookies     map[string]string
	cache       httpcache.Cacher
	logger      *slog.Logger
	baseURL     string
	minInterval time.Duration
}

// WithCookies sets explicit session cookie values.
func WithCookies(cookies map[string]string) Option {
	return func(c *config) { c.cookies = cookies }
}

// WithSessionID sets the sessionid cookie directly.
func WithSessionID(sessionID string) Option {
	return func(c *config) {
		if c.cookies == nil {
			c.cookies = make(map[string]string)
		}
		c.cookies["sessionid"] = sessionID
	}
}

// WithHTTPCache sets the response cache.
func WithHTTPCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseURL overrides the upstream base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithMinInterval overrides the minimum spacing between requests.
func WithMinInterval(d time.Duration) Option {
	return func(c *config) { c.minInterval = d }
}

// New creates a directory client. A session cookie must be provided via
// WithCookies or WithSessionID.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{
		logger:      slog.Default(),
		baseURL:     defaultBaseURL,
		minInterval: defaultMinInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.cookies["sessionid"] == "" {
		return nil, fmt.Errorf("%w: set %v or use WithSessionID", ErrNoSession, auth.EnvVarNames())
	}

	jar, err := auth.NewCookieJar(cfg.cookies)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		cache:   cfg.cache,
		logger:  cfg.logger,
		limiter: rate.NewLimiter(rate.Every(cfg.minInterval), 1),
		baseURL: cfg.baseURL,
	}, nil
}

// SearchTag fetches the hashtag feed for a tag.
func (c *Client) SearchTag(ctx context.Context, tag string) (*TagFeed, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tags/web_info/?tag_name=%s", c.baseURL, url.QueryEscape(tag))
	referer := fmt.Sprintf("%s/explore/tags/%s/", c.baseURL, url.PathEscape(tag))

	c.logger.InfoContext(ctx, "searching hashtag", "tag", tag)

	body, err := c.fetch(ctx, endpoint, referer)
	if err != nil {
		return nil, fmt.Errorf("search tag %q: %w", tag, err)
	}

	var feed TagFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("search tag %q: %w: %w", tag, profile.ErrMalformedResponse, err)
	}
	return &feed, nil
}

// FetchProfile fetches the full user record for a username. A missing user
// is reported as profile.ErrProfileNotFound.
func (c *Client) FetchProfile(ctx context.Context, username string) (*User, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.baseURL, url.QueryEscape(username))
	referer := fmt.Sprintf("%s/%s/", c.baseURL, url.PathEscape(username))

	c.logger.InfoContext(ctx, "fetching profile", "username", username)

	body, err := c.fetch(ctx, endpoint, referer)
	if err != nil {
		var httpErr *httpcache.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("profile %q: %w", username, profile.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("fetch profile %q: %w", username, err)
	}

	var record userRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("fetch profile %q: %w: %w", username, profile.ErrMalformedResponse, err)
	}
	if record.Data == nil || record.Data.User == nil {
		return nil, fmt.Errorf("profile %q: %w", username, profile.ErrProfileNotFound)
	}
	return record.Data.User, nil
}

// FetchFollowerPage fetches one follower page for a user. An empty cursor
// requests the first page.
func (c *Client) FetchFollowerPage(ctx context.Context, userID, cursor string) (*FollowerPage, error) {
	endpoint := fmt.Sprintf("%s/api/v1/friendships/%s/followers/?count=%d", c.baseURL, url.PathEscape(userID), followersPerPage)
	if cursor != "" {
		endpoint += "&max_id=" + url.QueryEscape(cursor)
	}

	c.logger.Debug("fetching follower page", "user_id", userID, "cursor", cursor)

	body, err := c.fetch(ctx, endpoint, c.baseURL+"/")
	if err != nil {
		return nil, fmt.Errorf("follower page for %s: %w", userID, err)
	}

	var page FollowerPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("follower page for %s: %w: %w", userID, profile.ErrMalformedResponse, err)
	}
	return &page, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, referer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, referer)

	return httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
}

// setHeaders applies the browser-like header set the web API expects.
func (c *Client) setHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-IG-App-ID", appID)
	req.Header.Set("X-ASBD-ID", asbdID)
	req.Header.Set("X-IG-WWW-Claim", "0")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", referer)
}
