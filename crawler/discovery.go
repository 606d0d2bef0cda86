package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/tagnet-dev/tagnet/backoff"
	"github.com/tagnet-dev/tagnet/instagram"
)

// ErrDiscovery marks a hashtag search response that does not carry the
// expected result shape. A broken payload is a hard error, not an empty
// result: callers must be able to tell "no matches" from "broken response".
var ErrDiscovery = errors.New("invalid hashtag search response")

// Discover turns a tag into the deduplicated candidate usernames, in
// upstream relevance order.
func (c *Crawler) Discover(ctx context.Context, tag string) ([]string, error) {
	feed, err := backoff.Do(ctx, c.retryPolicy(), func() (*instagram.TagFeed, error) {
		return c.cfg.Directory.SearchTag(ctx, tag)
	})
	if err != nil {
		return nil, fmt.Errorf("search tag %q: %w", tag, err)
	}

	if feed == nil || feed.Data == nil || feed.Data.Top == nil || feed.Data.Top.Sections == nil {
		return nil, fmt.Errorf("tag %q: %w", tag, ErrDiscovery)
	}

	seen := make(map[string]bool)
	var usernames []string
	for _, section := range feed.Data.Top.Sections {
		for _, media := range section.LayoutContent.Medias {
			username := media.Media.User.Username
			if username == "" || seen[username] {
				continue
			}
			seen[username] = true
			usernames = append(usernames, username)
		}
	}

	return usernames, nil
}

func (c *Crawler) retryPolicy() backoff.Policy {
	return backoff.Policy{
		Attempts:  c.cfg.RetryAttempts,
		BaseDelay: c.cfg.RetryBaseDelay,
		Logger:    c.logger,
	}
}
