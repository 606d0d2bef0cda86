// Package tagnet discovers Instagram business profiles by hashtag, mines
// contact channels from their public text, and maps common-follower
// connections across the discovered batch.
//
// Basic usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := tagnet.Run(ctx, cfg, tagnet.WithLogger(logger))
package tagnet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tagnet-dev/tagnet/analyze"
	"github.com/tagnet-dev/tagnet/auth"
	"github.com/tagnet-dev/tagnet/config"
	"github.com/tagnet-dev/tagnet/crawler"
	"github.com/tagnet-dev/tagnet/graph"
	"github.com/tagnet-dev/tagnet/httpcache"
	"github.com/tagnet-dev/tagnet/instagram"
	"github.com/tagnet-dev/tagnet/profile"
)

// Report is the result of one crawl run: the connected batch plus, when
// analysis is enabled, a username-keyed assessment map.
type Report struct {
	Profiles    []*profile.ProfileWithConnections
	Assessments map[string]analyze.Assessment
}

// Analyzer assesses a crawled batch. Satisfied by *analyze.Analyzer.
type Analyzer interface {
	Batch(ctx context.Context, batch []*profile.ProfileWithConnections) (map[string]analyze.Assessment, error)
}

// Option configures a Run call.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	directory crawler.Directory
	analyzer  Analyzer
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDirectory replaces the Instagram-backed profile directory.
func WithDirectory(dir crawler.Directory) Option {
	return func(o *options) { o.directory = dir }
}

// WithAnalyzer replaces the Gemini-backed analyzer.
func WithAnalyzer(a Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// Run executes a full crawl: hashtag discovery, enrichment, follower crawl,
// connection graph, and (when a Gemini key is configured) batch analysis.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if o.directory == nil {
		dir, err := newDirectory(ctx, cfg, o.logger)
		if err != nil {
			return nil, err
		}
		o.directory = dir
	}

	c, err := crawler.New(crawler.Config{
		Directory:         o.directory,
		Logger:            o.logger,
		MinFollowers:      cfg.MinFollowers,
		MaxFollowers:      cfg.MaxFollowers,
		MaxProfilesPerTag: cfg.MaxProfilesPerTag,
		FollowerTarget:    cfg.FollowerTarget,
		PageAttempts:      cfg.PageAttempts,
		RequestDelay:      cfg.RequestDelay,
		RetryAttempts:     uint(cfg.RetryAttempts), //nolint:gosec // validated positive
		RetryBaseDelay:    cfg.RetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("create crawler: %w", err)
	}

	batch, err := c.Run(ctx, cfg.Hashtags)
	if err != nil {
		return nil, err
	}

	// Every follower set in the batch is final here; the graph is a pure
	// function of the frozen batch.
	graph.Build(batch)

	report := &Report{Profiles: batch}

	analyzer := o.analyzer
	if analyzer == nil && cfg.GeminiAPIKey != "" {
		a, err := analyze.New(ctx, cfg.GeminiAPIKey,
			analyze.WithLogger(o.logger), analyze.WithModel(cfg.GeminiModel))
		if err != nil {
			o.logger.WarnContext(ctx, "analyzer unavailable, skipping analysis", "error", err)
		} else {
			analyzer = a
		}
	}
	if analyzer != nil {
		assessments, err := analyzer.Batch(ctx, batch)
		if err != nil {
			o.logger.WarnContext(ctx, "batch analysis failed", "error", err)
		} else {
			report.Assessments = assessments
		}
	}

	return report, nil
}

// newDirectory builds the real Instagram client from configured, environment
// and browser cookie sources, in that order.
func newDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (crawler.Directory, error) {
	sources := []auth.Source{}
	if cfg.SessionID != "" {
		sources = append(sources, auth.NewStaticSource(map[string]string{"sessionid": cfg.SessionID}))
	}
	sources = append(sources, auth.EnvSource{}, auth.NewBrowserSource(logger))

	cookies, err := auth.ChainSources(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("locate instagram session: %w", err)
	}

	cache, err := httpcache.New(cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create http cache: %w", err)
	}

	client, err := instagram.New(ctx,
		instagram.WithCookies(cookies),
		instagram.WithHTTPCache(cache),
		instagram.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create instagram client: %w", err)
	}
	return client, nil
}
