package ingest

import (
	"fmt"

	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/feed"
)

// Shows created through ingestion land in this category
const importCategory = "RSS Imports"

// TagResolver maps free-text show titles onto show tag records, creating
// them on first encounter. It never creates aliases; alias assignment is an
// administrative operation on the repository.
type TagResolver struct {
	tags database.ShowTagRepository
}

func NewTagResolver(tags database.ShowTagRepository) *TagResolver {
	return &TagResolver{tags: tags}
}

// Resolve upserts the show tag derived from title. A failed upsert gets one
// retry as a fresh read, since the usual cause is a concurrent worker
// winning the insert race for the same slug.
func (r *TagResolver) Resolve(title string) (*database.ShowTag, error) {
	slug := feed.Slugify(title)

	tag, err := r.tags.UpsertByTag(slug, title, importCategory)
	if err == nil {
		return tag, nil
	}

	if tag, readErr := r.tags.GetByTag(slug); readErr == nil && tag != nil {
		return tag, nil
	}

	return nil, fmt.Errorf("failed to resolve show tag %q: %w", slug, err)
}

// Canonicalize returns the tag's canonical target when it is an alias, else
// the tag itself. Alias depth is capped at one, so a single hop suffices;
// the parent is returned as-is even if it somehow carries a pointer.
func (r *TagResolver) Canonicalize(tag *database.ShowTag) (*database.ShowTag, error) {
	if tag.ParentTagID == nil {
		return tag, nil
	}

	parent, err := r.tags.GetByID(*tag.ParentTagID)
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical tag: %w", err)
	}
	if parent == nil {
		// dangling pointer; fall back to the alias itself
		return tag, nil
	}

	return parent, nil
}
