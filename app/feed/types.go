package feed

import "time"

// Metadata contains feed-level fields of a parsed syndication document
type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
}

// Item is one normalized feed entry. GUID is the dedup key (item guid,
// falling back to link). PublishedAt is nil when the feed omits a date;
// the ingestion worker substitutes ingestion time.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	Author      string
	ImageURL    string
	PublishedAt *time.Time
}
