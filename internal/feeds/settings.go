// Package feeds generates the RSS 2.0 and Atom feeds for a built site.
// Settings are resolved and validated eagerly so a misconfigured feeds block
// aborts the build before any feed file is written.
package feeds

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Summary modes: "excerpt" uses the front matter summary, "text" strips
// markup from the rendered body.
const (
	SummaryModeExcerpt = "excerpt"
	SummaryModeText    = "text"
)

const (
	defaultRSSOutput  = "rss.xml"
	defaultAtomOutput = "atom.xml"
)

// Settings is the validated feeds configuration with resolved output paths.
// RSSOutput and AtomOutput are output-relative file paths; an empty value
// means that format is disabled.
type Settings struct {
	RSSOutput  string
	AtomOutput string
	RSSHref    string
	AtomHref   string

	MaxItems      int
	IncludePosts  bool
	IncludePages  bool
	IncludeDrafts bool
	IncludeTags   sets.Set[string]

	SummaryMode     string
	SummaryMaxChars int

	SiteURL string
}

// ResolveSettings normalizes the feeds configuration block. It returns
// (nil, nil) when feeds are disabled.
func ResolveSettings(cfg *config.Config) (*Settings, error) {
	if !cfg.Feeds.Enabled {
		return nil, nil
	}

	siteURL := strings.TrimSpace(cfg.Site.URL)
	if siteURL == "" {
		return nil, sgerrors.NewFeatureError("feeds", "feeds.enabled = true requires site.url to be set")
	}
	siteURL = strings.TrimRight(siteURL, "/")

	if !cfg.Feeds.RSSEnabled && !cfg.Feeds.AtomEnabled {
		return nil, sgerrors.NewFeatureError("feeds", "at least one of feeds.rss_enabled or feeds.atom_enabled must be true")
	}

	s := &Settings{SiteURL: siteURL}

	if cfg.Feeds.RSSEnabled {
		raw := cfg.Feeds.RSSOutput
		if raw == "" {
			raw = defaultRSSOutput
		}
		rel, err := ensureRelativeOutput(raw, "rss_output")
		if err != nil {
			return nil, err
		}
		s.RSSOutput = rel
		s.RSSHref = "/" + rel
	}
	if cfg.Feeds.AtomEnabled {
		raw := cfg.Feeds.AtomOutput
		if raw == "" {
			raw = defaultAtomOutput
		}
		rel, err := ensureRelativeOutput(raw, "atom_output")
		if err != nil {
			return nil, err
		}
		s.AtomOutput = rel
		s.AtomHref = "/" + rel
	}

	if cfg.Feeds.MaxItems <= 0 {
		return nil, sgerrors.NewFeatureError("feeds", "feeds.max_items must be greater than zero")
	}
	s.MaxItems = cfg.Feeds.MaxItems

	s.IncludePosts = cfg.Feeds.IncludePosts
	s.IncludePages = cfg.Feeds.IncludePages
	s.IncludeDrafts = cfg.Feeds.IncludeDrafts
	s.IncludeTags = sets.New(cfg.Feeds.IncludeTags...)

	mode := strings.ToLower(strings.TrimSpace(cfg.Feeds.Summary.Mode))
	if mode != SummaryModeExcerpt && mode != SummaryModeText {
		return nil, sgerrors.NewFeatureError("feeds", "feeds.summary.mode must be 'excerpt' or 'text'")
	}
	s.SummaryMode = mode

	if cfg.Feeds.Summary.MaxChars <= 0 {
		return nil, sgerrors.NewFeatureError("feeds", "feeds.summary.max_chars must be greater than zero")
	}
	s.SummaryMaxChars = cfg.Feeds.Summary.MaxChars

	return s, nil
}

// ensureRelativeOutput validates a configured feed output path: it must be
// non-empty, relative, and free of ".." segments. Unlike the search path
// sanitizer there is no fallback; an unusable value is an error.
func ensureRelativeOutput(raw, label string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "." {
		return "", sgerrors.NewFeatureError("feeds", "feeds."+label+" cannot be empty")
	}
	if strings.HasPrefix(text, "/") {
		return "", sgerrors.NewUnsafePathError("feeds."+label, raw)
	}
	for _, part := range strings.Split(text, "/") {
		if part == ".." {
			return "", sgerrors.NewUnsafePathError("feeds."+label, raw)
		}
	}
	cleaned := path.Clean(text)
	if cleaned == "" || cleaned == "." {
		return "", sgerrors.NewFeatureError("feeds", "feeds."+label+" cannot be empty")
	}
	return cleaned, nil
}
