package instagram

// Wire shapes for the private web API. Pointer fields distinguish a missing
// branch from an empty one, so callers can tell a malformed payload apart
// from an empty result.

// TagFeed is the hashtag search response.
type TagFeed struct {
	Data *TagData `json:"data"`
}

// TagData is the payload of a TagFeed.
type TagData struct {
	Top *TagRanking `json:"top"`
}

// TagRanking holds the ranked sections of a hashtag feed.
type TagRanking struct {
	Sections []TagSection `json:"sections"`
}

// TagSection is one layout section of a hashtag feed.
type TagSection struct {
	LayoutContent struct {
		Medias []TagMedia `json:"medias"`
	} `json:"layout_content"`
}

// TagMedia is a single post entry in a hashtag feed.
type TagMedia struct {
	Media struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"media"`
}

type userRecord struct {
	Data *struct {
		User *User `json:"user"`
	} `json:"data"`
}

// User is the raw user record returned by the profile endpoint.
type User struct {
	Username                 string        `json:"username"`
	ID                       string        `json:"id"`
	FullName                 string        `json:"full_name"`
	EdgeFollowedBy           EdgeCount     `json:"edge_followed_by"`
	EdgeFollow               EdgeCount     `json:"edge_follow"`
	EdgeOwnerToTimelineMedia TimelineMedia `json:"edge_owner_to_timeline_media"`
	IsPrivate                bool          `json:"is_private"`
	IsVerified               bool          `json:"is_verified"`
	Biography                string        `json:"biography"`
	ExternalURL              string        `json:"external_url"`
	ProfilePicURL            string        `json:"profile_pic_url"`
	BusinessEmail            string        `json:"business_email"`
	BusinessPhoneNumber      string        `json:"business_phone_number"`
	IsBusinessAccount        bool          `json:"is_business_account"`
	BusinessCategoryName     string        `json:"business_category_name"`
}

// EdgeCount wraps the counter objects the web API nests everywhere.
type EdgeCount struct {
	Count int `json:"count"`
}

// TimelineMedia is the user's timeline edge with embedded recent posts.
type TimelineMedia struct {
	Count int            `json:"count"`
	Edges []TimelineEdge `json:"edges"`
}

// TimelineEdge wraps a timeline post node.
type TimelineEdge struct {
	Node TimelineNode `json:"node"`
}

// TimelineNode is a single raw timeline post.
type TimelineNode struct {
	ID                 string    `json:"id"`
	Shortcode          string    `json:"shortcode"`
	DisplayURL         string    `json:"display_url"`
	TakenAtTimestamp   int64     `json:"taken_at_timestamp"`
	EdgeLikedBy        EdgeCount `json:"edge_liked_by"`
	EdgeMediaToComment EdgeCount `json:"edge_media_to_comment"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
}

// Caption returns the first caption text of the post, if any.
func (n TimelineNode) Caption() string {
	if len(n.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	return n.EdgeMediaToCaption.Edges[0].Node.Text
}

// FollowerPage is one page of the follower listing.
type FollowerPage struct {
	Users     []FollowerUser `json:"users"`
	NextMaxID string         `json:"next_max_id"`
	BigList   bool           `json:"big_list"`
	Status    string         `json:"status"`
}

// HasMore reports whether the upstream advertised another page.
func (p *FollowerPage) HasMore() bool {
	return p.NextMaxID != ""
}

// FollowerUser is a single follower entry.
type FollowerUser struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	IsPrivate bool   `json:"is_private"`
}
