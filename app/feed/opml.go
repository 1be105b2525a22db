package feed

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"strings"
)

const untitledShow = "Untitled Show"

// Outline is one feed reference extracted from an OPML subscription list
type Outline struct {
	Title string
	URL   string
}

type opmlDocument struct {
	XMLName xml.Name      `xml:"opml"`
	Body    opmlBody      `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Type     string        `xml:"type,attr"`
	Title    string        `xml:"title,attr"`
	Text     string        `xml:"text,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// ParseOPML extracts RSS feed references from an OPML subscription export.
// Outlines nest arbitrarily (podcast apps group by folder), so the walk is
// recursive. Outlines without an xmlUrl are skipped.
func ParseOPML(data []byte) ([]Outline, error) {
	var doc opmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var feeds []Outline
	collectOutlines(doc.Body.Outlines, &feeds)

	return feeds, nil
}

func collectOutlines(outlines []opmlOutline, feeds *[]Outline) {
	for _, o := range outlines {
		if o.XMLURL != "" && (o.Type == "" || strings.EqualFold(o.Type, "rss")) {
			*feeds = append(*feeds, Outline{
				Title: cmp.Or(o.Title, o.Text, untitledShow),
				URL:   o.XMLURL,
			})
		}
		collectOutlines(o.Outlines, feeds)
	}
}
