package feed

import (
	"regexp"
	"strings"
)

const (
	maxSlugLength = 50
	fallbackSlug  = "untitled"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	invalidRe    = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRunRe  = regexp.MustCompile(`-+`)
)

// Slugify derives the canonical show tag from a free-text title: lowercase,
// whitespace runs become single hyphens, everything outside [a-z0-9-] is
// stripped, repeated hyphens collapse, and the result is capped at 50
// characters. Derivation never fails; an empty result falls back to a fixed
// placeholder.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = whitespaceRe.ReplaceAllString(slug, "-")
	slug = invalidRe.ReplaceAllString(slug, "")
	slug = hyphenRunRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}

	if slug == "" {
		return fallbackSlug
	}

	return slug
}
