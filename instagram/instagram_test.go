package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tagnet-dev/tagnet/profile"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(),
		WithSessionID("test-session"),
		WithBaseURL(srv.URL),
		WithMinInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("New without session = %v, want ErrNoSession", err)
	}
}

func TestSearchTag(t *testing.T) {
	body := `{"data":{"top":{"sections":[
		{"layout_content":{"medias":[
			{"media":{"user":{"username":"flower_shop"}}},
			{"media":{"user":{"username":"candle_studio"}}}
		]}},
		{"layout_content":{"medias":[
			{"media":{"user":{"username":"flower_shop"}}}
		]}}
	]}}}`

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tags/web_info/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("tag_name"); got != "handmade" {
			t.Errorf("tag_name = %q, want handmade", got)
		}
		if got := r.Header.Get("X-IG-App-ID"); got != appID {
			t.Errorf("X-IG-App-ID = %q", got)
		}
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test server
	}))

	feed, err := client.SearchTag(context.Background(), "handmade")
	if err != nil {
		t.Fatalf("SearchTag: %v", err)
	}
	if feed.Data == nil || feed.Data.Top == nil {
		t.Fatal("feed should carry the top sections")
	}
	if len(feed.Data.Top.Sections) != 2 {
		t.Errorf("sections = %d, want 2", len(feed.Data.Top.Sections))
	}
}

func TestSearchTagMalformedJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<!DOCTYPE html>`)) //nolint:errcheck // test server
	}))

	_, err := client.SearchTag(context.Background(), "handmade")
	if !errors.Is(err, profile.ErrMalformedResponse) {
		t.Errorf("SearchTag error = %v, want ErrMalformedResponse", err)
	}
}

func TestFetchProfile(t *testing.T) {
	body := `{"data":{"user":{
		"username":"flower_shop","id":"123","full_name":"Flower Shop",
		"edge_followed_by":{"count":5000},
		"edge_follow":{"count":300},
		"edge_owner_to_timeline_media":{"count":42,"edges":[
			{"node":{"id":"p1","shortcode":"Cabc","display_url":"https://cdn/p1.jpg",
				"taken_at_timestamp":1700000000,
				"edge_liked_by":{"count":120},"edge_media_to_comment":{"count":7},
				"edge_media_to_caption":{"edges":[{"node":{"text":"fresh roses"}}]}}}
		]},
		"is_private":false,"is_verified":true,
		"biography":"flowers daily","external_url":"https://flowers.example",
		"business_email":"hi@flowers.example","is_business_account":true,
		"business_category_name":"Florist"
	}}}`

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("username"); got != "flower_shop" {
			t.Errorf("username = %q", got)
		}
		_, _ = w.Write([]byte(body)) //nolint:errcheck // test server
	}))

	user, err := client.FetchProfile(context.Background(), "flower_shop")
	if err != nil {
		t.Fatalf("FetchProfile: %v", err)
	}
	if user.ID != "123" || user.EdgeFollowedBy.Count != 5000 {
		t.Errorf("unexpected user: %+v", user)
	}
	if len(user.EdgeOwnerToTimelineMedia.Edges) != 1 {
		t.Fatalf("timeline edges = %d, want 1", len(user.EdgeOwnerToTimelineMedia.Edges))
	}
	if got := user.EdgeOwnerToTimelineMedia.Edges[0].Node.Caption(); got != "fresh roses" {
		t.Errorf("caption = %q", got)
	}
}

func TestFetchProfileNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 404",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "null user",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data":{"user":null}}`)) //nolint:errcheck // test server
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchProfile(context.Background(), "ghost")
			if !errors.Is(err, profile.ErrProfileNotFound) {
				t.Errorf("FetchProfile error = %v, want ErrProfileNotFound", err)
			}
		})
	}
}

func TestFetchProfileRateLimited(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.FetchProfile(context.Background(), "flower_shop")
	if !errors.Is(err, profile.ErrRateLimited) {
		t.Errorf("FetchProfile error = %v, want ErrRateLimited", err)
	}
}

func TestFetchFollowerPage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/friendships/123/followers/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		switch r.URL.Query().Get("max_id") {
		case "":
			_, _ = w.Write([]byte(`{"users":[{"username":"a"},{"username":"b"}],"next_max_id":"100","big_list":true,"status":"ok"}`)) //nolint:errcheck // test server
		case "100":
			_, _ = w.Write([]byte(`{"users":[{"username":"c"}],"status":"ok"}`)) //nolint:errcheck // test server
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("max_id"))
		}
	}))

	ctx := context.Background()

	first, err := client.FetchFollowerPage(ctx, "123", "")
	if err != nil {
		t.Fatalf("FetchFollowerPage: %v", err)
	}
	if len(first.Users) != 2 || !first.HasMore() || first.NextMaxID != "100" {
		t.Errorf("unexpected first page: %+v", first)
	}

	second, err := client.FetchFollowerPage(ctx, "123", first.NextMaxID)
	if err != nil {
		t.Fatalf("FetchFollowerPage: %v", err)
	}
	if len(second.Users) != 1 || second.HasMore() {
		t.Errorf("unexpected second page: %+v", second)
	}
}
