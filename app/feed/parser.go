package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

const untitledFeed = "Untitled Feed"

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS/Atom document into feed metadata and normalized items.
// Entries without a usable dedup key or without a title are dropped here so
// downstream deduplication never sees a null key.
func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       cmp.Or(strings.TrimSpace(feed.Title), untitledFeed),
		Link:        feed.Link,
		Description: feed.Description,
	}

	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		metadata.ImageURL = feed.ITunesExt.Image
	} else if feed.Image != nil {
		metadata.ImageURL = feed.Image.URL
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized := p.normalizeItem(item)
		if normalized.GUID == "" || normalized.Title == "" {
			continue
		}
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:    cmp.Or(item.GUID, item.Link),
		Title:   strings.TrimSpace(item.Title),
		Link:    item.Link,
		Summary: firstLine(item.Description),
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	}

	if item.Author != nil && item.Author.Name != "" {
		normalized.Author = item.Author.Name
	} else if item.ITunesExt != nil {
		normalized.Author = item.ITunesExt.Author
	}

	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		normalized.ImageURL = item.ITunesExt.Image
	} else if item.Image != nil {
		normalized.ImageURL = item.Image.URL
	}

	return normalized
}

// firstLine trims an episode description down to its first non-empty line,
// which is what ends up in the post body.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
