// Package content defines the typed content model (posts and pages) and the
// discovery pass that builds it from Markdown sources.
package content

import "time"

// Post is a single blog post with metadata and rendered HTML content.
// Constructed once per discovery pass; immutable afterwards. Sorting and
// draft filtering happen at build time, never here.
type Post struct {
	Title       string
	Date        time.Time
	Slug        string
	Tags        []string
	Draft       bool
	Summary     string
	CoverImage  string
	CoverAlt    string
	ContentHTML string
	SourcePath  string
	URL         string
}

// Page is a single static page with rendered HTML content.
type Page struct {
	Title       string
	Slug        string
	ContentHTML string
	SourcePath  string
	URL         string
	Date        *time.Time
	ShowInNav   bool
	NavTitle    string
	NavOrder    int
}

// DefaultNavOrder is used when a page supplies no nav_order or an unparsable
// one.
const DefaultNavOrder = 1000

// NavLabel returns the title to show in navigation menus.
func (p Page) NavLabel() string {
	if p.NavTitle != "" {
		return p.NavTitle
	}
	return p.Title
}
