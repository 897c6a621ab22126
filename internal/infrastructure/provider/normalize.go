package provider

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// cleanText drops markup and entity escapes that upstreams leave in titles and
// snippets, and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(s))), " ")
}

// canonicalLink normalizes an article URL so re-discoveries of the same piece
// collapse onto one dedup key.
func canonicalLink(raw string) string {
	normalized, err := purell.NormalizeURLString(strings.TrimSpace(raw),
		purell.FlagsSafe|purell.FlagRemoveFragment|purell.FlagSortQuery|purell.FlagRemoveDuplicateSlashes)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return normalized
}

// httpsOnly keeps an image URL only when it can be embedded without mixed
// content warnings.
func httpsOnly(u string) string {
	if strings.HasPrefix(u, "https://") {
		return u
	}
	return ""
}
