package config

import "github.com/spf13/viper"

// registerDefaults seeds a viper instance with the built-in default tree.
// Every leaf is registered individually so user files merge key-by-key:
// nested tables merge recursively, scalars and lists replace.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("site.title", "My Site")
	v.SetDefault("site.subtitle", "")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.url", "")
	v.SetDefault("site.language", "en")
	v.SetDefault("site.timezone", "UTC")

	v.SetDefault("paths.content_dir", "content")
	v.SetDefault("paths.posts_dir", "content/posts")
	v.SetDefault("paths.pages_dir", "content/pages")
	v.SetDefault("paths.templates_dir", "templates")
	v.SetDefault("paths.static_dir", "static")
	v.SetDefault("paths.output_dir", "output")

	v.SetDefault("build.posts_per_page", 10)
	v.SetDefault("build.include_drafts", false)
	v.SetDefault("build.feed_posts", 20)
	v.SetDefault("build.sanitize_html", false)

	v.SetDefault("author.name", "")
	v.SetDefault("author.email", "")

	v.SetDefault("search.enabled", false)
	v.SetDefault("search.output_dir", "assets/search")
	v.SetDefault("search.page_path", "search/index.html")
	v.SetDefault("search.max_terms_per_doc", 300)
	v.SetDefault("search.min_token_len", 2)
	v.SetDefault("search.drop_df_ratio", 0.70)
	v.SetDefault("search.drop_df_min", 0)
	v.SetDefault("search.weight_body", 1.0)
	v.SetDefault("search.weight_title", 8.0)
	v.SetDefault("search.weight_tags", 6.0)
	v.SetDefault("search.normalize_by_doc_len", true)

	v.SetDefault("sitemap.enabled", false)
	v.SetDefault("sitemap.output", "sitemap.xml")
	v.SetDefault("sitemap.include_tags", true)
	v.SetDefault("sitemap.include_pages", true)
	v.SetDefault("sitemap.include_posts", true)
	v.SetDefault("sitemap.include_index", true)
	v.SetDefault("sitemap.exclude_paths", []string{})

	v.SetDefault("feeds.enabled", false)
	v.SetDefault("feeds.rss_enabled", true)
	v.SetDefault("feeds.atom_enabled", true)
	v.SetDefault("feeds.rss_output", "rss.xml")
	v.SetDefault("feeds.atom_output", "atom.xml")
	v.SetDefault("feeds.max_items", 20)
	v.SetDefault("feeds.include_drafts", false)
	v.SetDefault("feeds.include_pages", false)
	v.SetDefault("feeds.include_posts", true)
	v.SetDefault("feeds.include_tags", []string{})
	v.SetDefault("feeds.summary.mode", "excerpt")
	v.SetDefault("feeds.summary.max_chars", 240)
}
