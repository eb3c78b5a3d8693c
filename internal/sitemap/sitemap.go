// Package sitemap renders the sitemap.xml document for a built site. Entry
// paths are normalized and deduplicated before serialization so callers can
// feed URLs from every build step without coordinating.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

const (
	urlsetNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	defaultOutput   = "sitemap.xml"
	lastModLayout   = "2006-01-02"
)

// Entry is a single site-relative URL to include, with an optional
// last-modified timestamp. Only the calendar date of LastMod is emitted.
type Entry struct {
	Path    string
	LastMod *time.Time
}

// Settings is the validated sitemap configuration. The Wants accessors tell
// the caller which entry groups to collect; exclusion patterns are applied
// during generation.
type Settings struct {
	BaseURL string
	Output  string

	includeIndex bool
	includePosts bool
	includePages bool
	includeTags  bool

	exclude []*regexp.Regexp
}

// The Wants accessors are nil-safe so callers can consult them without first
// checking whether the sitemap is enabled at all.

func (s *Settings) Enabled() bool    { return s != nil }
func (s *Settings) WantsIndex() bool { return s != nil && s.includeIndex }
func (s *Settings) WantsPosts() bool { return s != nil && s.includePosts }
func (s *Settings) WantsPages() bool { return s != nil && s.includePages }
func (s *Settings) WantsTags() bool  { return s != nil && s.includeTags }

// ResolveSettings normalizes the sitemap configuration block. It returns
// (nil, nil) when the sitemap is disabled.
func ResolveSettings(cfg *config.Config) (*Settings, error) {
	if !cfg.Sitemap.Enabled {
		return nil, nil
	}

	siteURL := strings.TrimSpace(cfg.Site.URL)
	if siteURL == "" {
		return nil, sgerrors.NewFeatureError("sitemap", "sitemap.enabled = true requires site.url to be set")
	}
	baseURL := strings.TrimRight(siteURL, "/")
	if baseURL == "" {
		return nil, sgerrors.NewFeatureError("sitemap", "site.url must not be the root path")
	}

	output, err := render.SanitizeRelativePath("sitemap", cfg.Sitemap.Output, defaultOutput)
	if err != nil {
		return nil, err
	}

	exclude, err := compilePatterns(cfg.Sitemap.ExcludePaths)
	if err != nil {
		return nil, err
	}

	return &Settings{
		BaseURL:      baseURL,
		Output:       output,
		includeIndex: cfg.Sitemap.IncludeIndex,
		includePosts: cfg.Sitemap.IncludePosts,
		includePages: cfg.Sitemap.IncludePages,
		includeTags:  cfg.Sitemap.IncludeTags,
		exclude:      exclude,
	}, nil
}

type urlset struct {
	XMLName xml.Name  `xml:"urlset"`
	Xmlns   string    `xml:"xmlns,attr"`
	URLs    []urlNode `xml:"url"`
}

type urlNode struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Generate deduplicates, filters and sorts the entries, then writes the XML
// document under outputDir at the configured output path.
func Generate(s *Settings, entries []Entry, outputDir string) error {
	doc := urlset{Xmlns: urlsetNamespace}
	for _, entry := range sortEntries(s, entries) {
		node := urlNode{Loc: buildAbsoluteURL(s.BaseURL, entry.Path)}
		if entry.LastMod != nil {
			node.LastMod = entry.LastMod.Format(lastModLayout)
		}
		doc.URLs = append(doc.URLs, node)
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return render.WriteFile(outputDir, s.Output, append([]byte(xml.Header), out...))
}

// sortEntries normalizes paths, merges duplicates, drops excluded entries and
// orders the remainder by absolute URL.
func sortEntries(s *Settings, entries []Entry) []Entry {
	index := make(map[string]int)
	deduped := []Entry{}
	for _, entry := range entries {
		p := NormalizePath(entry.Path)
		if i, ok := index[p]; ok {
			// Duplicate paths merge; a lastmod beats the lack of one.
			if deduped[i].LastMod == nil && entry.LastMod != nil {
				deduped[i].LastMod = entry.LastMod
			}
			continue
		}
		index[p] = len(deduped)
		deduped = append(deduped, Entry{Path: p, LastMod: entry.LastMod})
	}

	kept := deduped[:0]
	for _, entry := range deduped {
		if !s.excluded(entry.Path) {
			kept = append(kept, entry)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		return buildAbsoluteURL(s.BaseURL, kept[i].Path) < buildAbsoluteURL(s.BaseURL, kept[j].Path)
	})
	return kept
}

// NormalizePath forces exactly one leading slash and collapses repeated
// slashes. Empty input maps to the root path.
func NormalizePath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "/"
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + strings.TrimLeft(p, "/")
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

func buildAbsoluteURL(baseURL, path string) string {
	if path == "/" {
		return baseURL + "/"
	}
	return baseURL + path
}

func (s *Settings) excluded(path string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	relative := strings.TrimLeft(path, "/")
	for _, rx := range s.exclude {
		if rx.MatchString(relative) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		text := strings.TrimLeft(strings.TrimSpace(pattern), "/")
		if text == "" {
			continue
		}
		rx, err := regexp.Compile(globToRegex(text))
		if err != nil {
			return nil, sgerrors.NewFeatureError("sitemap", fmt.Sprintf("invalid exclude pattern %q", pattern))
		}
		out = append(out, rx)
	}
	return out, nil
}

// globToRegex converts a shell-style glob to an anchored regex string. A "*"
// matches across path separators.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteString("$")
	return b.String()
}
