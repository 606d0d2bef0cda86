package crawler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tagnet-dev/tagnet/backoff"
	"github.com/tagnet-dev/tagnet/contact"
	"github.com/tagnet-dev/tagnet/instagram"
	"github.com/tagnet-dev/tagnet/profile"
)

const maxTopPosts = 3

// FetchAndFilter fetches the full record for username and applies the
// admission predicate: follower count within the configured bounds and not a
// private account. A missing profile and a rejected one both return
// (nil, nil), since neither is an error and the caller just moves on.
func (c *Crawler) FetchAndFilter(ctx context.Context, username string) (*profile.Profile, error) {
	user, err := backoff.Do(ctx, c.retryPolicy(), func() (*instagram.User, error) {
		return c.cfg.Directory.FetchProfile(ctx, username)
	})
	if errors.Is(err, profile.ErrProfileNotFound) {
		c.logger.Debug("profile not found", "username", username)
		return nil, nil //nolint:nilnil // absent profile is a skip, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile %q: %w", username, err)
	}

	followers := user.EdgeFollowedBy.Count
	if followers < c.cfg.MinFollowers || followers > c.cfg.MaxFollowers || user.IsPrivate {
		c.logger.Debug("profile filtered out",
			"username", username,
			"followers", followers,
			"private", user.IsPrivate)
		return nil, nil //nolint:nilnil // rejected profile is dropped silently
	}

	p := &profile.Profile{
		Username:            user.Username,
		UserID:              user.ID,
		FullName:            user.FullName,
		FollowersCount:      followers,
		FollowingCount:      user.EdgeFollow.Count,
		PostsCount:          user.EdgeOwnerToTimelineMedia.Count,
		IsPrivate:           user.IsPrivate,
		IsVerified:          user.IsVerified,
		IsBusinessAccount:   user.IsBusinessAccount,
		Biography:           user.Biography,
		ExternalURL:         user.ExternalURL,
		BusinessEmail:       user.BusinessEmail,
		BusinessPhoneNumber: user.BusinessPhoneNumber,
		BusinessCategory:    user.BusinessCategoryName,
	}
	p.TopPosts = topPosts(user.EdgeOwnerToTimelineMedia.Edges)
	p.ContactInfo = contact.Extract(contactText(p, user.EdgeOwnerToTimelineMedia.Edges))

	return p, nil
}

// topPosts keeps the three most liked timeline posts, ties broken by
// upstream order.
func topPosts(edges []instagram.TimelineEdge) []profile.Post {
	posts := make([]profile.Post, 0, len(edges))
	for _, edge := range edges {
		posts = append(posts, profile.Post{
			ID:        edge.Node.ID,
			Shortcode: edge.Node.Shortcode,
			Likes:     edge.Node.EdgeLikedBy.Count,
			Comments:  edge.Node.EdgeMediaToComment.Count,
			Caption:   edge.Node.Caption(),
			ImageURL:  edge.Node.DisplayURL,
			Timestamp: time.Unix(edge.Node.TakenAtTimestamp, 0).UTC(),
		})
	}

	slices.SortStableFunc(posts, func(a, b profile.Post) int {
		return b.Likes - a.Likes
	})
	if len(posts) > maxTopPosts {
		posts = posts[:maxTopPosts]
	}
	return posts
}

// contactText composes the free-text fields the extractor mines: biography,
// external URL, stored business phone, and every available post caption.
func contactText(p *profile.Profile, edges []instagram.TimelineEdge) string {
	parts := []string{p.Biography, p.ExternalURL, p.BusinessPhoneNumber}
	for _, edge := range edges {
		parts = append(parts, edge.Node.Caption())
	}
	return strings.Join(parts, "\n")
}
