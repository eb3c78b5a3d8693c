// Package config loads site.toml, merges it over built-in defaults and
// resolves the site's directory layout.
package config

// ConfigFileName is the fixed configuration filename inside a site root.
const ConfigFileName = "site.toml"

// SitePaths holds resolved absolute paths for the site's directories.
// Content, posts, pages and templates must exist before a build; static and
// output are created on demand.
type SitePaths struct {
	SiteRoot     string
	ContentDir   string
	PostsDir     string
	PagesDir     string
	TemplatesDir string
	StaticDir    string
	OutputDir    string
}

// SiteMeta mirrors the [site] table.
type SiteMeta struct {
	Title    string `mapstructure:"title"`
	Subtitle string `mapstructure:"subtitle"`
	BaseURL  string `mapstructure:"base_url"`
	URL      string `mapstructure:"url"`
	Language string `mapstructure:"language"`
	Timezone string `mapstructure:"timezone"`
}

// BuildOptions mirrors the [build] table.
type BuildOptions struct {
	PostsPerPage  int  `mapstructure:"posts_per_page"`
	IncludeDrafts bool `mapstructure:"include_drafts"`
	FeedPosts     int  `mapstructure:"feed_posts"`
	SanitizeHTML  bool `mapstructure:"sanitize_html"`
}

// Author mirrors the [author] table.
type Author struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// SearchConfig mirrors the [search] table.
type SearchConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	OutputDir         string  `mapstructure:"output_dir"`
	PagePath          string  `mapstructure:"page_path"`
	MaxTermsPerDoc    int     `mapstructure:"max_terms_per_doc"`
	MinTokenLen       int     `mapstructure:"min_token_len"`
	DropDFRatio       float64 `mapstructure:"drop_df_ratio"`
	DropDFMin         int     `mapstructure:"drop_df_min"`
	WeightBody        float64 `mapstructure:"weight_body"`
	WeightTitle       float64 `mapstructure:"weight_title"`
	WeightTags        float64 `mapstructure:"weight_tags"`
	NormalizeByDocLen bool    `mapstructure:"normalize_by_doc_len"`
}

// SitemapConfig mirrors the [sitemap] table.
type SitemapConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Output       string   `mapstructure:"output"`
	IncludeTags  bool     `mapstructure:"include_tags"`
	IncludePages bool     `mapstructure:"include_pages"`
	IncludePosts bool     `mapstructure:"include_posts"`
	IncludeIndex bool     `mapstructure:"include_index"`
	ExcludePaths []string `mapstructure:"exclude_paths"`
}

// FeedSummaryConfig mirrors the nested [feeds.summary] table.
type FeedSummaryConfig struct {
	Mode     string `mapstructure:"mode"`
	MaxChars int    `mapstructure:"max_chars"`
}

// FeedsConfig mirrors the [feeds] table (the modern multi-format feeds; the
// legacy feed.xml render is part of the template contract instead).
type FeedsConfig struct {
	Enabled       bool              `mapstructure:"enabled"`
	RSSEnabled    bool              `mapstructure:"rss_enabled"`
	AtomEnabled   bool              `mapstructure:"atom_enabled"`
	RSSOutput     string            `mapstructure:"rss_output"`
	AtomOutput    string            `mapstructure:"atom_output"`
	MaxItems      int               `mapstructure:"max_items"`
	IncludeDrafts bool              `mapstructure:"include_drafts"`
	IncludePages  bool              `mapstructure:"include_pages"`
	IncludePosts  bool              `mapstructure:"include_posts"`
	IncludeTags   []string          `mapstructure:"include_tags"`
	Summary       FeedSummaryConfig `mapstructure:"summary"`
}

// rawPaths mirrors the [paths] table before resolution.
type rawPaths struct {
	ContentDir   string `mapstructure:"content_dir"`
	PostsDir     string `mapstructure:"posts_dir"`
	PagesDir     string `mapstructure:"pages_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	StaticDir    string `mapstructure:"static_dir"`
	OutputDir    string `mapstructure:"output_dir"`
}

// Config is the fully assembled site configuration.
type Config struct {
	Site    SiteMeta      `mapstructure:"site"`
	Build   BuildOptions  `mapstructure:"build"`
	Author  Author        `mapstructure:"author"`
	Search  SearchConfig  `mapstructure:"search"`
	Sitemap SitemapConfig `mapstructure:"sitemap"`
	Feeds   FeedsConfig   `mapstructure:"feeds"`

	// Paths is resolved by Load, not unmarshaled.
	Paths SitePaths `mapstructure:"-"`
}
