package ingest

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/feed"
)

// Result summarizes one worker run over a single feed URL
type Result struct {
	URL          string
	ShowTag      string
	TotalEntries int
	NewPosts     int
}

// Worker drives one feed URL through fetch, resolve, dedupe and persist.
// It has no knowledge of its caller: the manual import path and the poll
// orchestrator invoke it identically.
type Worker struct {
	fetcher  *feed.Fetcher
	parser   *feed.Parser
	resolver *TagResolver
	gate     *DedupGate
	posts    database.PostRepository
	subs     database.SubscriptionRepository
}

func NewWorker(fetcher *feed.Fetcher, parser *feed.Parser, resolver *TagResolver,
	gate *DedupGate, posts database.PostRepository, subs database.SubscriptionRepository) *Worker {
	return &Worker{
		fetcher:  fetcher,
		parser:   parser,
		resolver: resolver,
		gate:     gate,
		posts:    posts,
		subs:     subs,
	}
}

// Run processes url once. userID attributes ingested posts to the
// registering user; empty means no owner. The subscription's last-fetch
// timestamp is touched on every attempt, failure included, so the poll
// history stays honest; it never gates whether a URL is attempted.
func (w *Worker) Run(ctx context.Context, url, userID string) (*Result, error) {
	start := time.Now()

	data, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		w.touch(url)
		return nil, newError(KindFetch, url, err)
	}

	metadata, items, err := w.parser.Run(data)
	if err != nil {
		w.touch(url)
		return nil, newError(KindParse, url, err)
	}

	tag, err := w.resolver.Resolve(metadata.Title)
	if err != nil {
		w.touch(url)
		return nil, newError(KindResolution, url, err)
	}

	if err := w.refreshSubscriptionTitle(url, metadata.Title); err != nil {
		slog.Warn("Failed to refresh subscription title", "url", url, "error", err)
	}

	fresh, err := w.gate.FilterNew(tag.ID, items)
	if err != nil {
		w.touch(url)
		return nil, newError(KindPersistence, url, err)
	}

	inserted := 0
	if len(fresh) > 0 {
		posts := w.buildPosts(tag, metadata, fresh, userID)
		inserted, err = w.posts.InsertIngested(posts)
		if err != nil {
			w.touch(url)
			return nil, newError(KindPersistence, url, err)
		}
	}

	w.touch(url)

	slog.Info("Feed processed",
		"url", url,
		"show", tag.Tag,
		"duration", time.Since(start),
		"total", len(items),
		"new", inserted)

	return &Result{
		URL:          url,
		ShowTag:      tag.Tag,
		TotalEntries: len(items),
		NewPosts:     inserted,
	}, nil
}

// refreshSubscriptionTitle stores the feed's own title on the subscription
// the first time the URL fetches successfully; imports only know the title
// the user or the OPML file claimed.
func (w *Worker) refreshSubscriptionTitle(url, title string) error {
	sub, err := w.subs.GetFirstForURL(url)
	if err != nil {
		return err
	}
	if sub == nil || sub.LastFetchedAt != nil {
		return nil
	}

	return w.subs.UpdateTitle(url, title)
}

// buildPosts materializes new entries as posts in the feed's original
// order. Entry timestamps carry over; entries without one get ingestion
// time.
func (w *Worker) buildPosts(tag *database.ShowTag, metadata *feed.Metadata, items []feed.Item, userID string) []database.Post {
	now := time.Now().UTC()

	var owner *string
	if userID != "" {
		owner = &userID
	}

	posts := make([]database.Post, 0, len(items))
	for _, item := range items {
		content := fmt.Sprintf("#%s %s", tag.Tag, item.Title)
		if item.Summary != "" {
			content += "\n\n" + item.Summary
		}

		createdAt := now
		if item.PublishedAt != nil {
			createdAt = *item.PublishedAt
		}

		guid := item.GUID
		posts = append(posts, database.Post{
			ShowTagID:    tag.ID,
			UserID:       owner,
			Content:      content,
			AuthorName:   cmp.Or(item.Author, metadata.Title),
			ExternalGUID: &guid,
			ExternalURL:  item.Link,
			ImageURL:     cmp.Or(item.ImageURL, metadata.ImageURL),
			CreatedAt:    createdAt,
		})
	}

	return posts
}

func (w *Worker) touch(url string) {
	if err := w.subs.TouchLastFetched(url, time.Now().UTC()); err != nil {
		slog.Warn("Failed to update last fetched timestamp", "url", url, "error", err)
	}
}
