package graph

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tagnet-dev/tagnet/profile"
)

func withFollowers(username string, followers ...string) *profile.ProfileWithConnections {
	return &profile.ProfileWithConnections{
		Profile:   profile.Profile{Username: username},
		Followers: followers,
	}
}

func TestBuildPairwiseIntersections(t *testing.T) {
	a := withFollowers("a", "x", "y", "z")
	b := withFollowers("b", "y", "z", "w")
	c := withFollowers("c", "q")
	batch := []*profile.ProfileWithConnections{a, b, c}

	Build(batch)

	wantA := []profile.Connection{
		{Username: "b", CommonFollowers: []string{"y", "z"}, CommonFollowersCount: 2},
	}
	if diff := cmp.Diff(wantA, a.Connections); diff != "" {
		t.Errorf("a.Connections mismatch (-want +got):\n%s", diff)
	}

	wantB := []profile.Connection{
		{Username: "a", CommonFollowers: []string{"y", "z"}, CommonFollowersCount: 2},
	}
	if diff := cmp.Diff(wantB, b.Connections); diff != "" {
		t.Errorf("b.Connections mismatch (-want +got):\n%s", diff)
	}

	if len(c.Connections) != 0 {
		t.Errorf("c.Connections = %v, want none", c.Connections)
	}
}

func TestBuildSortsByOverlapDescending(t *testing.T) {
	hub := withFollowers("hub", "f1", "f2", "f3", "f4")
	small := withFollowers("small", "f1")
	big := withFollowers("big", "f1", "f2", "f3")
	batch := []*profile.ProfileWithConnections{hub, small, big}

	Build(batch)

	var order []string
	for _, conn := range hub.Connections {
		order = append(order, conn.Username)
	}
	if diff := cmp.Diff([]string{"big", "small"}, order); diff != "" {
		t.Errorf("connection order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTiesKeepBatchOrder(t *testing.T) {
	hub := withFollowers("hub", "f1", "f2")
	first := withFollowers("first", "f1")
	second := withFollowers("second", "f2")
	batch := []*profile.ProfileWithConnections{hub, first, second}

	Build(batch)

	var order []string
	for _, conn := range hub.Connections {
		order = append(order, conn.Username)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCountMatchesMembership(t *testing.T) {
	batch := make([]*profile.ProfileWithConnections, 0, 4)
	for i := range 4 {
		followers := make([]string, 0, i+2)
		for j := range i + 2 {
			followers = append(followers, fmt.Sprintf("f%d", j))
		}
		batch = append(batch, withFollowers(fmt.Sprintf("p%d", i), followers...))
	}

	Build(batch)

	for _, p := range batch {
		for _, conn := range p.Connections {
			if conn.CommonFollowersCount != len(conn.CommonFollowers) {
				t.Errorf("%s -> %s: count %d, members %d",
					p.Username, conn.Username, conn.CommonFollowersCount, len(conn.CommonFollowers))
			}
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	batch := []*profile.ProfileWithConnections{
		withFollowers("a", "x", "y", "z"),
		withFollowers("b", "y", "z", "w"),
		withFollowers("c", "x", "w"),
	}

	Build(batch)
	first := make([][]profile.Connection, len(batch))
	for i, p := range batch {
		first[i] = p.Connections
	}

	Build(batch)
	for i, p := range batch {
		if diff := cmp.Diff(first[i], p.Connections); diff != "" {
			t.Errorf("%s connections changed on rebuild (-first +second):\n%s", p.Username, diff)
		}
	}
}

func TestBuildEmptyAndSingletonBatches(t *testing.T) {
	Build(nil)

	solo := withFollowers("solo", "x", "y")
	Build([]*profile.ProfileWithConnections{solo})
	if len(solo.Connections) != 0 {
		t.Errorf("solo.Connections = %v, want none", solo.Connections)
	}
}
