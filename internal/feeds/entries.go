package feeds

import (
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/htmltext"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Entry is a single feed item ready for serialization. URL and GUID carry
// the absolute URL under the configured site URL.
type Entry struct {
	Title     string
	URL       string
	GUID      string
	Summary   string
	Published time.Time
	Updated   time.Time
}

// collectEntries gathers eligible posts and pages, sorts them by published
// timestamp descending with URL descending as tie-break, and truncates to
// MaxItems. Drafts are skipped unless the feeds block opts in; the tag
// allow-list applies to posts only; dateless pages are never eligible.
func collectEntries(s *Settings, posts []content.Post, pages []content.Page) []Entry {
	entries := []Entry{}

	if s.IncludePosts {
		for _, post := range posts {
			if post.Draft && !s.IncludeDrafts {
				continue
			}
			if len(s.IncludeTags) > 0 && !hasAnyTag(post.Tags, s.IncludeTags) {
				continue
			}
			absURL := s.SiteURL + post.URL
			entries = append(entries, Entry{
				Title:     post.Title,
				URL:       absURL,
				GUID:      absURL,
				Summary:   postSummary(post, s.SummaryMode, s.SummaryMaxChars),
				Published: post.Date,
				Updated:   post.Date,
			})
		}
	}

	if s.IncludePages {
		for _, page := range pages {
			if page.Date == nil {
				continue
			}
			absURL := s.SiteURL + page.URL
			entries = append(entries, Entry{
				Title:     page.Title,
				URL:       absURL,
				GUID:      absURL,
				Summary:   pageSummary(page, s.SummaryMaxChars),
				Published: *page.Date,
				Updated:   *page.Date,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Published.Equal(entries[j].Published) {
			return entries[i].Published.After(entries[j].Published)
		}
		return entries[i].URL > entries[j].URL
	})
	if len(entries) > s.MaxItems {
		entries = entries[:s.MaxItems]
	}
	return entries
}

func hasAnyTag(tags []string, allowed sets.Set[string]) bool {
	for _, tag := range tags {
		if allowed.Has(tag) {
			return true
		}
	}
	return false
}

func postSummary(post content.Post, mode string, maxChars int) string {
	var summary string
	if mode == SummaryModeExcerpt {
		summary = strings.TrimSpace(post.Summary)
	} else {
		summary = htmltext.StripTags(post.ContentHTML)
		if summary == "" {
			summary = post.Summary
		}
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ""
	}
	return htmltext.Truncate(summary, maxChars)
}

func pageSummary(page content.Page, maxChars int) string {
	if page.ContentHTML == "" {
		return ""
	}
	return htmltext.Truncate(htmltext.StripTags(page.ContentHTML), maxChars)
}
