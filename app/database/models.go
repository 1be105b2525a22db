package database

import (
	"time"
)

// Federation statuses. Transitions are one-way: pending -> published or
// pending -> failed.
const (
	FederationPending   = "pending"
	FederationPublished = "published"
	FederationFailed    = "failed"
)

// ShowTag is the identity of one show/topic channel. A tag with a
// ParentTagID set is an alias: its posts are attributed to the parent,
// and the parent itself never has a parent (alias depth is capped at one).
type ShowTag struct {
	ID          string
	Tag         string // URL slug, unique
	Name        string
	Category    string
	ParentTagID *string
	CreatedAt   time.Time
}

// Post is a feed entry materialized as a post, or a user-authored post.
// ExternalGUID is set only for ingestion-origin posts and is unique per
// show tag; it is the dedup key for repeated feed runs.
type Post struct {
	ID           string
	ShowTagID    string
	UserID       *string
	Content      string
	AuthorName   string
	ExternalGUID *string
	ExternalURL  string
	ImageURL     string
	CreatedAt    time.Time
}

// FeedSubscription is one (user, feed URL) registration. The same URL may
// be registered by many users; ingestion dedupes work by URL system-wide.
type FeedSubscription struct {
	ID            string
	UserID        string
	URL           string
	Title         string
	LastFetchedAt *time.Time
	CreatedAt     time.Time
}

// SubscriptionRef is the per-URL polling unit: one row per distinct URL,
// carrying the earliest registrant so ingested posts have an owner.
type SubscriptionRef struct {
	URL           string
	UserID        string
	Title         string
	LastFetchedAt *time.Time
}

// FederatedPost tracks the delivery of one local post to one connected
// external account.
type FederatedPost struct {
	ID                 string
	LocalPostID        string
	ConnectedAccountID string
	Status             string
	ExternalPostID     *string
	ExternalURL        *string
	ErrorMessage       *string
	PublishedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
