package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/federation"
	"github.com/castfeed/castfeed/app/feed"
	"github.com/castfeed/castfeed/app/ingest"
)

// feedProbe validates a URL and reads the feed's own title before the
// subscription is registered
type feedProbe interface {
	Run(ctx context.Context, url string) (*feed.Metadata, []feed.Item, error)
}

func NewHandler(tags database.ShowTagRepository, posts database.PostRepository,
	subs database.SubscriptionRepository, fetcher feedProbe, worker *ingest.Worker,
	orchestrator *ingest.Orchestrator, resolver *ingest.TagResolver,
	dispatcher *federation.Dispatcher) *Handler {
	return &Handler{
		tags:         tags,
		posts:        posts,
		subs:         subs,
		fetcher:      fetcher,
		worker:       worker,
		orchestrator: orchestrator,
		resolver:     resolver,
		dispatcher:   dispatcher,
	}
}

// ImportFeeds registers feed URLs for the calling user and ingests each one
// synchronously. Each URL gets its own outcome so a batch import shows
// exactly which entries succeeded.
func (h *Handler) ImportFeeds(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entries := make([]feed.Outline, 0, len(req.RSSURLs))
	if req.OPML != "" {
		parsed, err := feed.ParseOPML([]byte(req.OPML))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OPML document"})
			return
		}
		entries = append(entries, parsed...)
	}
	for _, url := range req.RSSURLs {
		entries = append(entries, feed.Outline{URL: url})
	}

	if len(entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no feed URLs provided"})
		return
	}

	results := make([]ImportResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, h.importOne(c.Request.Context(), userID, entry))
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) importOne(ctx context.Context, userID string, entry feed.Outline) ImportResult {
	metadata, _, err := h.fetcher.Run(ctx, entry.URL)
	if err != nil {
		return ImportResult{URL: entry.URL, Status: "failed", Message: err.Error()}
	}

	title := metadata.Title
	if title == "" {
		title = entry.Title
	}

	if _, err := h.subs.Insert(userID, entry.URL, title); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ImportResult{URL: entry.URL, Status: "skipped", Title: title, Message: "feed already imported"}
		}
		return ImportResult{URL: entry.URL, Status: "failed", Message: err.Error()}
	}

	if _, err := h.worker.Run(ctx, entry.URL, userID); err != nil {
		return ImportResult{URL: entry.URL, Status: "failed", Title: title, Message: err.Error()}
	}

	return ImportResult{URL: entry.URL, Status: "success", Title: title}
}

// TriggerPoll runs the full poll sweep. The route is guarded by the
// pre-shared cron secret; an unauthorized call never reaches this handler.
func (h *Handler) TriggerPoll(c *gin.Context) {
	summary, err := h.orchestrator.PollAll(c.Request.Context())
	if err != nil {
		slog.Error("Poll run failed to start", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enumerate feeds"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CreatePost authors a local post and creates one pending federation record
// per selected connected account. The actual external publish happens out
// of band.
func (h *Handler) CreatePost(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tag, err := h.resolver.Resolve(req.ShowTitle)
	if err != nil {
		slog.Error("Show tag resolution failed", "title", req.ShowTitle, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve show tag"})
		return
	}

	post, err := h.posts.InsertAuthored(database.Post{
		ShowTagID: tag.ID,
		UserID:    &userID,
		Content:   req.Content,
	})
	if err != nil {
		slog.Error("Post creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	var targets []database.FederatedPost
	if len(req.ConnectedAccountIDs) > 0 {
		targets, err = h.dispatcher.Dispatch(post.ID, req.ConnectedAccountIDs)
		if err != nil {
			slog.Error("Federation dispatch failed", "post_id", post.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create federation targets"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"post": post, "federated_posts": targets})
}

// GetFederationStatus exposes the per-target delivery state of a post
func (h *Handler) GetFederationStatus(c *gin.Context) {
	targets, err := h.dispatcher.Status(c.Param("id"))
	if err != nil {
		slog.Error("Federation status lookup failed", "post_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load federation status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"federated_posts": targets})
}

// ResolveFederation is the callback the out-of-band publisher reports
// outcomes through. Double resolution is a benign conflict, not an alarm.
func (h *Handler) ResolveFederation(c *gin.Context) {
	var req ResolveFederationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Status != database.FederationPublished && req.Status != database.FederationFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be published or failed"})
		return
	}

	err := h.dispatcher.Resolve(c.Param("id"), federation.Outcome{
		Published:      req.Status == database.FederationPublished,
		ExternalPostID: req.ExternalPostID,
		ExternalURL:    req.ExternalURL,
		ErrorMessage:   req.ErrorMessage,
	})

	switch {
	case errors.Is(err, federation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "federated post not found"})
	case errors.Is(err, federation.ErrAlreadyTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "federated post already resolved"})
	case err != nil:
		slog.Error("Federation resolution failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve federated post"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// GetShowPosts serves a show's recent posts. Lookups route through
// canonicalization so an alias slug serves its canonical show's posts.
func (h *Handler) GetShowPosts(c *gin.Context) {
	tag, err := h.tags.GetByTag(c.Param("tag"))
	if err != nil {
		slog.Error("Show tag lookup failed", "tag", c.Param("tag"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load show tag"})
		return
	}
	if tag == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "show not found"})
		return
	}

	canonical, err := h.resolver.Canonicalize(tag)
	if err != nil {
		slog.Error("Canonicalization failed", "tag", tag.Tag, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to canonicalize show tag"})
		return
	}

	posts, err := h.posts.GetRecentByShowTag(canonical.ID, 50)
	if err != nil {
		slog.Error("Post lookup failed", "tag", canonical.Tag, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"show": canonical, "posts": posts})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if count, err := h.subs.GetSubscriptionCount(); err == nil {
		health["subscriptions"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if count, err := h.tags.GetTagCount(); err == nil {
		stats["shows"] = count
	}
	if count, err := h.posts.GetPostCount(); err == nil {
		stats["posts"] = count
	}
	if count, err := h.subs.GetSubscriptionCount(); err == nil {
		stats["subscriptions"] = count
	}

	c.JSON(http.StatusOK, stats)
}
