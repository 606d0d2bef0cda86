// Package crawler implements the crawl engine: hashtag discovery, profile
// enrichment with admission filtering, and cursor-paginated follower
// retrieval, run strictly sequentially with randomized pacing between
// upstream calls.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/tagnet-dev/tagnet/instagram"
	"github.com/tagnet-dev/tagnet/profile"
)

// Directory is the upstream lookup capability the engine crawls against.
// instagram.Client implements it; tests inject fakes.
type Directory interface {
	SearchTag(ctx context.Context, tag string) (*instagram.TagFeed, error)
	FetchProfile(ctx context.Context, username string) (*instagram.User, error)
	FetchFollowerPage(ctx context.Context, userID, cursor string) (*instagram.FollowerPage, error)
}

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxProfilesPerTag = 20
	DefaultFollowerTarget    = 200
	DefaultPageAttempts      = 20
	DefaultRequestDelay      = 3 * time.Second
)

// Pacing jitter: profile fetches vary the base delay by ±20%, follower
// pages by ±30%.
const (
	profileJitter = 0.2
	pageJitter    = 0.3
)

// Config parameterizes a Crawler.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Config struct {
	Directory Directory
	Logger    *slog.Logger

	// Admission bounds, inclusive.
	MinFollowers int
	MaxFollowers int

	// MaxProfilesPerTag caps the accepted batch per hashtag.
	MaxProfilesPerTag int

	// FollowerTarget bounds the follower set collected per profile;
	// PageAttempts bounds the pagination loop.
	FollowerTarget int
	PageAttempts   int

	// RequestDelay is the base pause between upstream calls.
	RequestDelay time.Duration

	// Retry policy for individual upstream calls.
	RetryAttempts  uint
	RetryBaseDelay time.Duration

	// Sleep is injectable so pacing is testable without wall-clock waits.
	Sleep func(time.Duration)
}

// Crawler runs the sequential crawl pipeline.
type Crawler struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Crawler. The Directory is required.
func New(cfg Config) (*Crawler, error) {
	if cfg.Directory == nil {
		return nil, errors.New("crawler: directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxProfilesPerTag <= 0 {
		cfg.MaxProfilesPerTag = DefaultMaxProfilesPerTag
	}
	if cfg.FollowerTarget <= 0 {
		cfg.FollowerTarget = DefaultFollowerTarget
	}
	if cfg.PageAttempts <= 0 {
		cfg.PageAttempts = DefaultPageAttempts
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = DefaultRequestDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Crawler{cfg: cfg, logger: cfg.Logger}, nil
}

// Run crawls all tags and returns the accepted batch with followers
// attached. Per-item failures are logged and skipped; the run always
// returns whatever was successfully collected. Connections are not
// populated here: the caller builds the graph once every follower set in
// the batch is final.
func (c *Crawler) Run(ctx context.Context, tags []string) ([]*profile.ProfileWithConnections, error) {
	if len(tags) == 0 {
		return nil, errors.New("crawler: no tags to crawl")
	}

	var batch []*profile.ProfileWithConnections
	for _, tag := range tags {
		accepted, err := c.crawlTag(ctx, tag)
		if err != nil {
			// One broken tag does not abort the run.
			c.logger.ErrorContext(ctx, "tag crawl failed", "tag", tag, "error", err)
			continue
		}
		batch = append(batch, accepted...)
	}

	c.logger.InfoContext(ctx, "discovery complete", "accepted", len(batch))

	// Phase two: crawl every profile's followers before any connection is
	// computed, so the graph is a pure function of a frozen batch.
	for i, p := range batch {
		if i > 0 {
			c.pause(profileJitter)
		}
		p.Followers = c.CrawlFollowers(ctx, p.UserID, c.cfg.FollowerTarget)
		c.logger.InfoContext(ctx, "followers crawled",
			"username", p.Username,
			"collected", len(p.Followers),
			"target", c.cfg.FollowerTarget)
	}

	return batch, nil
}

func (c *Crawler) crawlTag(ctx context.Context, tag string) ([]*profile.ProfileWithConnections, error) {
	usernames, err := c.Discover(ctx, tag)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "tag discovered", "tag", tag, "candidates", len(usernames))

	var accepted []*profile.ProfileWithConnections
	for _, username := range usernames {
		if len(accepted) >= c.cfg.MaxProfilesPerTag {
			break
		}

		// Pace every fetch, including the first after the tag search.
		c.pause(profileJitter)

		p, err := c.FetchAndFilter(ctx, username)
		if err != nil {
			c.logger.WarnContext(ctx, "profile fetch failed", "username", username, "error", err)
			continue
		}
		if p == nil {
			continue
		}

		c.logger.InfoContext(ctx, "profile accepted",
			"username", p.Username,
			"followers", p.FollowersCount)
		accepted = append(accepted, &profile.ProfileWithConnections{Profile: *p})
	}

	return accepted, nil
}

// pause sleeps the base request delay varied by ±jitter.
func (c *Crawler) pause(jitter float64) {
	c.cfg.Sleep(randomizeDelay(c.cfg.RequestDelay, jitter))
}

// randomizeDelay spreads base uniformly across [base*(1-v), base*(1+v)].
func randomizeDelay(base time.Duration, v float64) time.Duration {
	if base <= 0 {
		return 0
	}
	factor := 1 - v + 2*v*rand.Float64()
	return time.Duration(float64(base) * factor)
}
