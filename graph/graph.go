// Package graph builds the common-follower connection graph for a batch of
// crawled profiles. Two profiles are connected when at least one account
// follows both of them.
package graph

import (
	"slices"

	"github.com/tagnet-dev/tagnet/profile"
)

// Build computes pairwise follower intersections across the batch and writes
// the result into each profile's Connections field, replacing whatever was
// there. Connections are sorted by common-follower count, largest first; ties
// keep batch order, so repeated builds over the same batch give the same
// result.
func Build(batch []*profile.ProfileWithConnections) {
	sets := make([]map[string]struct{}, len(batch))
	for i, p := range batch {
		set := make(map[string]struct{}, len(p.Followers))
		for _, f := range p.Followers {
			set[f] = struct{}{}
		}
		sets[i] = set
	}

	for i, p := range batch {
		conns := make([]profile.Connection, 0, len(batch)-1)
		for j, other := range batch {
			if i == j {
				continue
			}
			common := intersect(p.Followers, sets[j])
			if len(common) == 0 {
				continue
			}
			conns = append(conns, profile.Connection{
				Username:             other.Username,
				CommonFollowers:      common,
				CommonFollowersCount: len(common),
			})
		}
		slices.SortStableFunc(conns, func(a, b profile.Connection) int {
			return b.CommonFollowersCount - a.CommonFollowersCount
		})
		p.Connections = conns
	}
}

// intersect keeps the members of followers that are also in other, preserving
// the order of the first list.
func intersect(followers []string, other map[string]struct{}) []string {
	var common []string
	for _, f := range followers {
		if _, ok := other[f]; ok {
			common = append(common, f)
		}
	}
	return common
}
