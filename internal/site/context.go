package site

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
)

// BaseContext carries the fields every template receives.
type BaseContext struct {
	Site   config.SiteMeta
	Author config.Author
	Nav    []NavItem
	Search *SearchInfo // nil when search is disabled
}

// SearchInfo exposes the search page and client bundle to templates.
type SearchInfo struct {
	PageURL     string
	AssetsBase  string
	BundlePath  string
	MinTokenLen int
}

// IndexContext renders the root index and the /page/N/ continuations.
type IndexContext struct {
	BaseContext
	Posts      []content.Post
	Pagination PageRef
}

// PostContext renders a single post page.
type PostContext struct {
	BaseContext
	Post content.Post
}

// PageContext renders a single static page.
type PageContext struct {
	BaseContext
	Page content.Page
}

// TagsContext renders the tag index.
type TagsContext struct {
	BaseContext
	Tags []TagGroup
}

// TagContext renders one tag detail page.
type TagContext struct {
	BaseContext
	Tag TagGroup
}

// FeedContext renders the legacy feed.xml template.
type FeedContext struct {
	BaseContext
	Posts     []content.Post
	BuildDate time.Time
}
