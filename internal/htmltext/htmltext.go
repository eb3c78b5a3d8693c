// Package htmltext derives plain text from rendered HTML fragments for feed
// summaries and search excerpts. The two consumers want slightly different
// text shapes, so both variants are kept explicit.
package htmltext

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// StripTags drops all markup from the fragment, unescapes entities and
// collapses runs of whitespace into single spaces. Adjacent text separated
// only by tags joins without a space. Used for feed summaries.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}
	return Collapse(b.String())
}

// ExtractText replaces every tag with a single space and collapses
// whitespace, leaving entities escaped. Used for search excerpts, where tag
// boundaries should become word boundaries.
func ExtractText(fragment string) string {
	return Collapse(tagPattern.ReplaceAllString(fragment, " "))
}

// Collapse squeezes all whitespace runs to single spaces and trims both ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate caps value at maxChars characters, replacing the tail with "..."
// when it exceeds the limit.
func Truncate(value string, maxChars int) string {
	runes := []rune(value)
	if len(runes) <= maxChars {
		return value
	}
	keep := maxChars - 3
	if keep < 0 {
		keep = 0
	}
	trimmed := strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace)
	return trimmed + "..."
}

// NormalizeExcerpt collapses whitespace and caps the text at limit characters.
// Unlike Truncate the ellipsis is appended after the cut, and skipped when the
// cut already ends with one.
func NormalizeExcerpt(text string, limit int) string {
	cleaned := Collapse(text)
	runes := []rune(cleaned)
	if len(runes) <= limit {
		return cleaned
	}
	trimmed := strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
	if !strings.HasSuffix(trimmed, "...") {
		trimmed += "..."
	}
	return trimmed
}
