package crawler

import (
	"context"

	"github.com/tagnet-dev/tagnet/backoff"
	"github.com/tagnet-dev/tagnet/instagram"
)

// CrawlFollowers collects up to target follower usernames for userID via
// cursor pagination. It never fails: a page fetch error (after retries) is a
// terminal condition and whatever was collected so far is returned. The loop
// stops when the target is reached, the upstream signals no more pages, or
// the attempt budget runs out.
func (c *Crawler) CrawlFollowers(ctx context.Context, userID string, target int) []string {
	collected := make([]string, 0, target)
	seen := make(map[string]bool)

	cursor := ""
	hasMore := true
	attempts := 0

	for len(collected) < target && hasMore && attempts < c.cfg.PageAttempts {
		attempts++

		page, err := backoff.Do(ctx, c.retryPolicy(), func() (*instagram.FollowerPage, error) {
			return c.cfg.Directory.FetchFollowerPage(ctx, userID, cursor)
		})
		if err != nil {
			// Partial results are a valid outcome; the graph degrades
			// gracefully with fewer followers.
			c.logger.WarnContext(ctx, "follower page failed, keeping partial result",
				"user_id", userID,
				"attempt", attempts,
				"collected", len(collected),
				"error", err)
			break
		}

		if page.Users == nil {
			// Upstream may end pagination without an explicit marker.
			c.logger.Debug("follower page carried no user list, ending pagination",
				"user_id", userID, "attempt", attempts)
			break
		}

		for _, u := range page.Users {
			if u.Username == "" || seen[u.Username] {
				continue
			}
			seen[u.Username] = true
			collected = append(collected, u.Username)
		}

		hasMore = page.HasMore()
		cursor = page.NextMaxID

		if hasMore {
			c.pause(pageJitter)
		}
	}

	if len(collected) > target {
		collected = collected[:target]
	}
	return collected
}
