package tagnet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tagnet-dev/tagnet/analyze"
	"github.com/tagnet-dev/tagnet/config"
	"github.com/tagnet-dev/tagnet/instagram"
	"github.com/tagnet-dev/tagnet/profile"
)

type stubDirectory struct{}

func (stubDirectory) SearchTag(_ context.Context, _ string) (*instagram.TagFeed, error) {
	var section instagram.TagSection
	for _, u := range []string{"alpha", "beta"} {
		var media instagram.TagMedia
		media.Media.User.Username = u
		section.LayoutContent.Medias = append(section.LayoutContent.Medias, media)
	}
	return &instagram.TagFeed{
		Data: &instagram.TagData{
			Top: &instagram.TagRanking{Sections: []instagram.TagSection{section}},
		},
	}, nil
}

func (stubDirectory) FetchProfile(_ context.Context, username string) (*instagram.User, error) {
	return &instagram.User{
		Username:       username,
		ID:             "id-" + username,
		EdgeFollowedBy: instagram.EdgeCount{Count: 5000},
	}, nil
}

func (stubDirectory) FetchFollowerPage(_ context.Context, userID, _ string) (*instagram.FollowerPage, error) {
	followers := map[string][]instagram.FollowerUser{
		"id-alpha": {{Username: "x"}, {Username: "y"}},
		"id-beta":  {{Username: "y"}, {Username: "z"}},
	}
	return &instagram.FollowerPage{Users: followers[userID]}, nil
}

type stubAnalyzer struct {
	err error
}

func (s stubAnalyzer) Batch(_ context.Context, batch []*profile.ProfileWithConnections) (map[string]analyze.Assessment, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make(map[string]analyze.Assessment, len(batch))
	for _, p := range batch {
		results[p.Username] = analyze.Assessment{Category: "Test"}
	}
	return results, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Hashtags:          []string{"handmade"},
		MinFollowers:      1000,
		MaxFollowers:      1000000,
		MaxProfilesPerTag: 20,
		FollowerTarget:    200,
		PageAttempts:      20,
		RetryAttempts:     1,
		RetryDelay:        time.Millisecond,
		RequestDelay:      time.Millisecond,
	}
}

func TestRunBuildsConnectedReport(t *testing.T) {
	report, err := Run(context.Background(), testConfig(),
		WithDirectory(stubDirectory{}), WithAnalyzer(stubAnalyzer{}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(report.Profiles))
	}

	alpha := report.Profiles[0]
	if alpha.Username != "alpha" {
		t.Fatalf("first profile = %q", alpha.Username)
	}
	if len(alpha.Connections) != 1 || alpha.Connections[0].Username != "beta" {
		t.Errorf("alpha.Connections = %+v", alpha.Connections)
	}
	if diff := cmp.Diff([]string{"y"}, alpha.Connections[0].CommonFollowers); diff != "" {
		t.Errorf("common followers mismatch (-want +got):\n%s", diff)
	}

	if report.Assessments["alpha"].Category != "Test" {
		t.Errorf("assessments = %+v", report.Assessments)
	}
}

func TestRunWithoutAnalyzer(t *testing.T) {
	report, err := Run(context.Background(), testConfig(), WithDirectory(stubDirectory{}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Assessments != nil {
		t.Errorf("assessments = %+v, want none", report.Assessments)
	}
}

func TestRunAnalysisFailureDoesNotFailRun(t *testing.T) {
	report, err := Run(context.Background(), testConfig(),
		WithDirectory(stubDirectory{}), WithAnalyzer(stubAnalyzer{err: errors.New("quota")}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Assessments != nil {
		t.Errorf("assessments = %+v, want none after failure", report.Assessments)
	}
	if len(report.Profiles) != 2 {
		t.Errorf("profiles = %d, want 2", len(report.Profiles))
	}
}

func TestRunRequiresHashtags(t *testing.T) {
	cfg := testConfig()
	cfg.Hashtags = nil
	if _, err := Run(context.Background(), cfg, WithDirectory(stubDirectory{})); err == nil {
		t.Error("Run without hashtags should fail")
	}
}
