package feeds

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func feedsConfig() *config.Config {
	return &config.Config{
		Site: config.SiteMeta{
			Title:    "Feed Site",
			Subtitle: "Notes from the lab",
			URL:      "https://example.com",
			Language: "en-US",
		},
		Author: config.Author{Name: "Jane Doe", Email: "jane@example.com"},
		Feeds: config.FeedsConfig{
			Enabled:      true,
			RSSEnabled:   true,
			AtomEnabled:  true,
			MaxItems:     20,
			IncludePosts: true,
			Summary:      config.FeedSummaryConfig{Mode: "excerpt", MaxChars: 240},
		},
	}
}

func feedPost(title, slug string, date time.Time, tags []string, summary string) content.Post {
	return content.Post{
		Title:       title,
		Date:        date,
		Slug:        slug,
		Tags:        tags,
		Summary:     summary,
		ContentHTML: "<p>" + summary + "</p>",
		URL:         "/posts/" + slug + "/",
	}
}

func feedCorpus() []content.Post {
	featured := feedPost("Featured Post", "featured-post",
		time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC),
		[]string{"featured", "go"}, "A featured update.")
	plain := feedPost("Plain Post", "plain-post",
		time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		[]string{"notes"}, "An ordinary update.")
	return []content.Post{featured, plain}
}

func generateFeeds(t *testing.T, cfg *config.Config, posts []content.Post, pages []content.Page) (string, *Settings) {
	t.Helper()
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.NotNil(t, s)
	outputDir := t.TempDir()
	require.NoError(t, Generate(s, posts, pages, cfg.Site, cfg.Author, outputDir))
	return outputDir, s
}

func readFeed(t *testing.T, outputDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestResolveSettings_Disabled_ReturnsNil(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Enabled = false

	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestResolveSettings_MissingSiteURL_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Site.URL = "   "

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrFeatureSettings)
	require.Contains(t, err.Error(), "feeds.enabled = true requires site.url to be set")
}

func TestResolveSettings_NoFormatEnabled_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.RSSEnabled = false
	cfg.Feeds.AtomEnabled = false

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrFeatureSettings)
	require.Contains(t, err.Error(), "at least one of feeds.rss_enabled or feeds.atom_enabled")
}

func TestResolveSettings_Defaults(t *testing.T) {
	cfg := feedsConfig()
	cfg.Site.URL = "https://example.com/"

	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.Equal(t, "https://example.com", s.SiteURL)
	require.Equal(t, "rss.xml", s.RSSOutput)
	require.Equal(t, "atom.xml", s.AtomOutput)
	require.Equal(t, "/rss.xml", s.RSSHref)
	require.Equal(t, "/atom.xml", s.AtomHref)
	require.Equal(t, SummaryModeExcerpt, s.SummaryMode)
}

func TestResolveSettings_DisabledFormatHasNoOutput(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.AtomEnabled = false

	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.Equal(t, "rss.xml", s.RSSOutput)
	require.Empty(t, s.AtomOutput)
	require.Empty(t, s.AtomHref)
}

func TestResolveSettings_NestedOutputPath(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.RSSOutput = "feeds/rss.xml"

	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.Equal(t, "feeds/rss.xml", s.RSSOutput)
	require.Equal(t, "/feeds/rss.xml", s.RSSHref)
}

func TestResolveSettings_TraversalOutput_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.RSSOutput = "../rss.xml"

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrUnsafeOutputPath)
}

func TestResolveSettings_AbsoluteOutput_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.AtomOutput = "/atom.xml"

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrUnsafeOutputPath)
}

func TestResolveSettings_ZeroMaxItems_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.MaxItems = 0

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrFeatureSettings)
	require.Contains(t, err.Error(), "feeds.max_items")
}

func TestResolveSettings_SummaryModeNormalized(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Summary.Mode = "  TEXT "

	s, err := ResolveSettings(cfg)
	require.NoError(t, err)
	require.Equal(t, SummaryModeText, s.SummaryMode)
}

func TestResolveSettings_BadSummaryMode_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Summary.Mode = "bogus"

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrFeatureSettings)
	require.Contains(t, err.Error(), "feeds.summary.mode")
}

func TestResolveSettings_ZeroSummaryMaxChars_Fails(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Summary.MaxChars = 0

	_, err := ResolveSettings(cfg)
	require.ErrorIs(t, err, sgerrors.ErrFeatureSettings)
	require.Contains(t, err.Error(), "feeds.summary.max_chars")
}

func TestCollectEntries_SkipsDrafts(t *testing.T) {
	cfg := feedsConfig()
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	posts := feedCorpus()
	draft := feedPost("Hidden Draft", "hidden-draft",
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), nil, "Not yet.")
	draft.Draft = true
	posts = append(posts, draft)

	entries := collectEntries(s, posts, nil)
	require.Len(t, entries, 2)
	require.Equal(t, "Featured Post", entries[0].Title)
	require.Equal(t, "Plain Post", entries[1].Title)
}

func TestCollectEntries_IncludeDraftsOptIn(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.IncludeDrafts = true
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	draft := feedPost("Hidden Draft", "hidden-draft",
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), nil, "Not yet.")
	draft.Draft = true

	entries := collectEntries(s, append(feedCorpus(), draft), nil)
	require.Len(t, entries, 3)
	require.Equal(t, "Hidden Draft", entries[0].Title)
}

func TestCollectEntries_TagAllowListAppliesToPostsOnly(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.IncludeTags = []string{"featured"}
	cfg.Feeds.IncludePages = true
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	pageDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	pages := []content.Page{{
		Title:       "About",
		Slug:        "about",
		URL:         "/about/",
		ContentHTML: "<p>About this site.</p>",
		Date:        &pageDate,
	}}

	entries := collectEntries(s, feedCorpus(), pages)
	require.Len(t, entries, 2)
	require.Equal(t, "Featured Post", entries[0].Title)
	require.Equal(t, "About", entries[1].Title)
}

func TestCollectEntries_SkipsDatelessPages(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.IncludePages = true
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	pages := []content.Page{{
		Title:       "Contact",
		Slug:        "contact",
		URL:         "/contact/",
		ContentHTML: "<p>Say hello.</p>",
	}}

	entries := collectEntries(s, nil, pages)
	require.Empty(t, entries)
}

func TestCollectEntries_SortsNewestFirstWithURLTieBreak(t *testing.T) {
	cfg := feedsConfig()
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	shared := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	posts := []content.Post{
		feedPost("Alpha", "alpha", shared, nil, "One."),
		feedPost("Zulu", "zulu", shared, nil, "Two."),
		feedPost("Older", "older", shared.AddDate(0, -1, 0), nil, "Three."),
	}

	entries := collectEntries(s, posts, nil)
	require.Len(t, entries, 3)
	require.Equal(t, "Zulu", entries[0].Title)
	require.Equal(t, "Alpha", entries[1].Title)
	require.Equal(t, "Older", entries[2].Title)
}

func TestCollectEntries_TruncatesToMaxItems(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.MaxItems = 1
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	entries := collectEntries(s, feedCorpus(), nil)
	require.Len(t, entries, 1)
	require.Equal(t, "Featured Post", entries[0].Title)
}

func TestCollectEntries_TextSummaryStripsMarkup(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Summary.Mode = "text"
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	post := feedPost("Rich", "rich", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), nil, "Plain fallback.")
	post.ContentHTML = "<p>Hello <strong>world</strong> from the body.</p>"

	entries := collectEntries(s, []content.Post{post}, nil)
	require.Len(t, entries, 1)
	require.Equal(t, "Hello world from the body.", entries[0].Summary)
}

func TestCollectEntries_SummaryTruncatedAtMaxChars(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.Summary.Mode = "text"
	cfg.Feeds.Summary.MaxChars = 10
	s, err := ResolveSettings(cfg)
	require.NoError(t, err)

	post := feedPost("Rich", "rich", time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), nil, "ignored")
	post.ContentHTML = "<p>Hello world from the body.</p>"

	entries := collectEntries(s, []content.Post{post}, nil)
	require.Len(t, entries, 1)
	require.Equal(t, "Hello w...", entries[0].Summary)
}

func TestGenerate_WritesRSS(t *testing.T) {
	cfg := feedsConfig()
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	rss := readFeed(t, outputDir, "rss.xml")
	require.True(t, strings.HasPrefix(rss, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, rss, `<rss version="2.0">`)
	require.Contains(t, rss, "<title>Feed Site</title>")
	require.Contains(t, rss, "<description>Notes from the lab</description>")
	require.Contains(t, rss, "<link>https://example.com</link>")
	require.Contains(t, rss, "<language>en-US</language>")
	require.Contains(t, rss, "<managingEditor>jane@example.com (Jane Doe)</managingEditor>")
	require.Contains(t, rss,
		"<item><title>Featured Post</title>"+
			"<link>https://example.com/posts/featured-post/</link>"+
			"<guid>https://example.com/posts/featured-post/</guid>"+
			"<pubDate>Sat, 20 Apr 2024 12:00:00 GMT</pubDate>"+
			"<description>A featured update.</description></item>")
	require.Less(t, strings.Index(rss, "Featured Post"), strings.Index(rss, "Plain Post"))
}

func TestGenerate_WritesAtom(t *testing.T) {
	cfg := feedsConfig()
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	atom := readFeed(t, outputDir, "atom.xml")
	require.Contains(t, atom, `<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="en-US">`)
	require.Contains(t, atom, "<subtitle>Notes from the lab</subtitle>")
	require.Contains(t, atom, "<id>https://example.com</id>")
	require.Contains(t, atom, "<updated>2024-04-20T12:00:00Z</updated>")
	require.Contains(t, atom,
		`<link rel="alternate" href="https://example.com"></link>`+
			`<link rel="self" href="https://example.com/atom.xml"></link>`)
	require.Contains(t, atom, "<author><name>Jane Doe</name><email>jane@example.com</email></author>")
	require.Contains(t, atom,
		"<entry><title>Featured Post</title>"+
			"<id>https://example.com/posts/featured-post/</id>"+
			`<link href="https://example.com/posts/featured-post/"></link>`+
			"<published>2024-04-20T12:00:00Z</published>"+
			"<updated>2024-04-20T12:00:00Z</updated>"+
			`<summary type="html">A featured update.</summary></entry>`)
}

func TestGenerate_SiteFallbacks(t *testing.T) {
	cfg := feedsConfig()
	cfg.Site = config.SiteMeta{URL: "https://example.com"}
	cfg.Author = config.Author{Email: "editor@example.com"}
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	rss := readFeed(t, outputDir, "rss.xml")
	require.Contains(t, rss, "<title>My Site</title>")
	require.Contains(t, rss, "<description>My Site</description>")
	require.Contains(t, rss, "<language>en</language>")
	require.Contains(t, rss, "<managingEditor>editor@example.com (My Site)</managingEditor>")

	atom := readFeed(t, outputDir, "atom.xml")
	require.Contains(t, atom, "<subtitle>My Site</subtitle>")
	require.NotContains(t, atom, "<author>")
}

func TestGenerate_EmptyFeedUsesEpochUpdated(t *testing.T) {
	cfg := feedsConfig()
	outputDir, _ := generateFeeds(t, cfg, nil, nil)

	atom := readFeed(t, outputDir, "atom.xml")
	require.Contains(t, atom, "<updated>1970-01-01T00:00:00Z</updated>")
	require.NotContains(t, atom, "<entry>")
}

func TestGenerate_RSSOnlySkipsAtom(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.AtomEnabled = false
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	_, err := os.Stat(filepath.Join(outputDir, "atom.xml"))
	require.True(t, os.IsNotExist(err))
	require.FileExists(t, filepath.Join(outputDir, "rss.xml"))
}

func TestGenerate_IncludeTagsLimitsFeed(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.IncludeTags = []string{"featured"}
	cfg.Feeds.MaxItems = 1
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	rss := readFeed(t, outputDir, "rss.xml")
	require.Contains(t, rss, "Featured Post")
	require.NotContains(t, rss, "Plain Post")
}

func TestGenerate_NestedOutputCreatesDirectories(t *testing.T) {
	cfg := feedsConfig()
	cfg.Feeds.RSSOutput = "feeds/rss.xml"
	cfg.Feeds.AtomOutput = "feeds/atom.xml"
	outputDir, _ := generateFeeds(t, cfg, feedCorpus(), nil)

	require.FileExists(t, filepath.Join(outputDir, "feeds", "rss.xml"))
	atom := readFeed(t, outputDir, "feeds/atom.xml")
	require.Contains(t, atom, `<link rel="self" href="https://example.com/feeds/atom.xml"></link>`)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := feedsConfig()
	posts := feedCorpus()

	first, _ := generateFeeds(t, cfg, posts, nil)
	second, _ := generateFeeds(t, cfg, posts, nil)

	require.Equal(t, readFeed(t, first, "rss.xml"), readFeed(t, second, "rss.xml"))
	require.Equal(t, readFeed(t, first, "atom.xml"), readFeed(t, second, "atom.xml"))
}
