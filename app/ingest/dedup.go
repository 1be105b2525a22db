package ingest

import (
	"fmt"

	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/feed"
)

// DedupGate filters parsed entries down to the ones not yet ingested for a
// show. It only reads; the uniqueness constraint at insert time remains the
// backstop against workers racing between this read and their insert.
type DedupGate struct {
	posts database.PostRepository
}

func NewDedupGate(posts database.PostRepository) *DedupGate {
	return &DedupGate{posts: posts}
}

// FilterNew returns the entries whose GUID is not already recorded for the
// show, preserving the feed's original order. Repeated GUIDs within the
// same document keep only their first occurrence.
func (g *DedupGate) FilterNew(showTagID string, items []feed.Item) ([]feed.Item, error) {
	existing, err := g.posts.GetExternalGUIDs(showTagID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing entries: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	fresh := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if _, ok := existing[item.GUID]; ok {
			continue
		}
		if _, ok := seen[item.GUID]; ok {
			continue
		}
		seen[item.GUID] = struct{}{}
		fresh = append(fresh, item)
	}

	return fresh, nil
}
