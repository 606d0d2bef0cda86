// Package profile defines the common types shared by the crawl pipeline.
package profile

import (
	"errors"
	"time"
)

// Common errors returned by the upstream client and crawl stages.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Post is a single timeline post attached to a profile.
type Post struct {
	ID        string    `json:"id"`
	Shortcode string    `json:"shortcode"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"imageUrl"`
	Timestamp time.Time `json:"timestamp"`
}

// Permalink returns the canonical post URL built from the shortcode.
func (p Post) Permalink() string {
	return "https://www.instagram.com/p/" + p.Shortcode + "/"
}

// ContactInfo holds contact channels mined from a profile's free-text fields.
// PhoneNumbers never contains a number already present in WhatsAppNumbers.
type ContactInfo struct {
	WhatsAppNumbers []string `json:"whatsappNumbers"`
	TelegramLinks   []string `json:"telegramLinks"`
	PhoneNumbers    []string `json:"phoneNumbers"`
}

// Empty reports whether no contact channel was found.
func (c ContactInfo) Empty() bool {
	return len(c.WhatsAppNumbers) == 0 && len(c.TelegramLinks) == 0 && len(c.PhoneNumbers) == 0
}

// Profile is a fully populated, accepted profile. It is built once by the
// enricher and never partially updated afterward.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Profile struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`

	FollowersCount int `json:"followersCount"`
	FollowingCount int `json:"followingCount"`
	PostsCount     int `json:"postsCount"`

	IsPrivate         bool `json:"isPrivate"`
	IsVerified        bool `json:"isVerified"`
	IsBusinessAccount bool `json:"isBusinessAccount"`

	Biography   string `json:"biography"`
	ExternalURL string `json:"externalUrl,omitempty"`

	BusinessEmail       string `json:"businessEmail,omitempty"`
	BusinessPhoneNumber string `json:"businessPhoneNumber,omitempty"`
	BusinessCategory    string `json:"businessCategory,omitempty"`

	TopPosts    []Post      `json:"topPosts"`
	ContactInfo ContactInfo `json:"contactInfo"`
}

// Connection is one edge of the common-follower graph, attached to the
// profile it was computed for.
type Connection struct {
	Username             string   `json:"username"`
	CommonFollowers      []string `json:"commonFollowers"`
	CommonFollowersCount int      `json:"commonFollowersCount"`
}

// ProfileWithConnections pairs an accepted profile with its crawled follower
// set and, once the whole batch has been crawled, its ranked connections.
type ProfileWithConnections struct {
	Profile
	Followers   []string     `json:"followers"`
	Connections []Connection `json:"connections"`
}
