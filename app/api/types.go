package api

import (
	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/federation"
	"github.com/castfeed/castfeed/app/ingest"
)

// UserAuth resolves a bearer token to a user id. Authentication lives in an
// external identity service; this is its seam.
type UserAuth interface {
	UserID(token string) (string, error)
}

// Handler carries the pipeline components the HTTP surface exposes
type Handler struct {
	tags         database.ShowTagRepository
	posts        database.PostRepository
	subs         database.SubscriptionRepository
	fetcher      feedProbe
	worker       *ingest.Worker
	orchestrator *ingest.Orchestrator
	resolver     *ingest.TagResolver
	dispatcher   *federation.Dispatcher
}

// ImportRequest carries either a plain URL list or a raw OPML document
type ImportRequest struct {
	RSSURLs []string `json:"rss_urls"`
	OPML    string   `json:"opml"`
}

// ImportResult is the per-URL outcome of a manual import
type ImportResult struct {
	URL     string `json:"url"`
	Status  string `json:"status"` // success | skipped | failed
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreatePostRequest authors a local post, optionally fanning it out to
// connected external accounts
type CreatePostRequest struct {
	ShowTitle           string   `json:"show_title" binding:"required"`
	Content             string   `json:"content" binding:"required"`
	ConnectedAccountIDs []string `json:"connected_account_ids"`
}

// ResolveFederationRequest reports the outcome of one out-of-band publish
// attempt back to the dispatcher
type ResolveFederationRequest struct {
	Status         string `json:"status" binding:"required"` // published | failed
	ExternalPostID string `json:"external_post_id"`
	ExternalURL    string `json:"external_url"`
	ErrorMessage   string `json:"error_message"`
}
