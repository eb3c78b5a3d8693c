package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
)

const summaryRunes = 200

// Discover scans the posts and pages directories and returns the typed
// content collections. Ordering follows directory iteration; sorting and
// filtering belong to the build stage. The pass reads files and renders
// Markdown but writes nothing.
func Discover(paths config.SitePaths, renderer *markdown.Renderer) ([]Post, []Page, error) {
	posts, err := discoverPosts(paths.PostsDir, renderer)
	if err != nil {
		return nil, nil, err
	}
	pages, err := discoverPages(paths.PagesDir, renderer)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("content discovered", logfields.Count(len(posts)+len(pages)))
	return posts, pages, nil
}

func discoverPosts(dir string, renderer *markdown.Renderer) ([]Post, error) {
	var posts []Post
	err := eachMarkdownFile(dir, func(path string, meta map[string]any, body []byte) error {
		html, err := renderer.Render(body)
		if err != nil {
			return sgerrors.NewContentError(sgerrors.ErrInvalidFieldValue, path, fmt.Sprintf("cannot render markdown: %v", err))
		}

		title := stringField(meta["title"])
		if title == "" {
			return sgerrors.NewContentError(sgerrors.ErrMissingField, path, "missing required 'title' in post front matter")
		}

		rawDate, ok := meta["date"]
		if !ok || stringField(rawDate) == "" {
			return sgerrors.NewContentError(sgerrors.ErrMissingField, path, "missing required 'date' in post front matter")
		}
		date, err := parseDate(rawDate)
		if err != nil {
			return sgerrors.NewContentError(sgerrors.ErrInvalidFieldValue, path, fmt.Sprintf("invalid 'date' value in post front matter: %v", rawDate))
		}

		slug := stringField(meta["slug"])
		if slug == "" {
			slug = fileStem(path)
		}

		tags, err := normalizeTags(meta["tags"])
		if err != nil {
			return sgerrors.NewContentError(sgerrors.ErrInvalidFieldValue, path, fmt.Sprintf("invalid 'tags' value in front matter: %v", meta["tags"]))
		}

		summaryText := defaultSummary(body)
		if summary, ok := meta["summary"]; ok && summary != nil {
			summaryText = stringField(summary)
		}

		posts = append(posts, Post{
			Title:       title,
			Date:        date,
			Slug:        slug,
			Tags:        tags,
			Draft:       boolField(meta["draft"]),
			Summary:     summaryText,
			CoverImage:  stringField(meta["cover_image"]),
			CoverAlt:    stringField(meta["cover_alt"]),
			ContentHTML: html,
			SourcePath:  path,
			URL:         "/posts/" + slug + "/",
		})
		return nil
	})
	return posts, err
}

func discoverPages(dir string, renderer *markdown.Renderer) ([]Page, error) {
	var pages []Page
	err := eachMarkdownFile(dir, func(path string, meta map[string]any, body []byte) error {
		html, err := renderer.Render(body)
		if err != nil {
			return sgerrors.NewContentError(sgerrors.ErrInvalidFieldValue, path, fmt.Sprintf("cannot render markdown: %v", err))
		}

		title := stringField(meta["title"])
		if title == "" {
			return sgerrors.NewContentError(sgerrors.ErrMissingField, path, "missing required 'title' in page front matter")
		}

		slug := stringField(meta["slug"])
		if slug == "" {
			slug = fileStem(path)
		}

		var pageDate *time.Time
		if rawDate, ok := meta["date"]; ok && stringField(rawDate) != "" {
			date, err := parseDate(rawDate)
			if err != nil {
				return sgerrors.NewContentError(sgerrors.ErrInvalidFieldValue, path, fmt.Sprintf("invalid 'date' value in page front matter: %v", rawDate))
			}
			pageDate = &date
		}

		pages = append(pages, Page{
			Title:       title,
			Slug:        slug,
			ContentHTML: html,
			SourcePath:  path,
			URL:         "/" + slug + "/",
			Date:        pageDate,
			ShowInNav:   boolField(meta["show_in_nav"]),
			NavTitle:    stringField(meta["nav_title"]),
			NavOrder:    intField(meta["nav_order"], DefaultNavOrder),
		})
		return nil
	})
	return pages, err
}

// eachMarkdownFile invokes fn for every *.md file directly under dir with its
// parsed front matter and body. Front matter parse failures abort with a
// content error naming the file.
func eachMarkdownFile(dir string, fn func(path string, meta map[string]any, body []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return sgerrors.NewIOError(dir, "cannot read content directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return sgerrors.NewIOError(path, "cannot read content file", err)
		}
		meta, body, err := frontmatter.Extract(raw)
		if err != nil {
			return sgerrors.NewContentParseError(path, err)
		}
		if err := fn(path, meta, body); err != nil {
			return err
		}
	}
	return nil
}

// normalizeTags turns the raw front matter value into a list of strings:
// absent becomes empty, a scalar string becomes a singleton, list elements
// are stringified, anything else is rejected.
func normalizeTags(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{v}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			tags = append(tags, stringField(item))
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("unsupported tags type %T", raw)
	}
}

// parseDate accepts native TOML/YAML datetime values and ISO-8601 strings,
// with or without a time component.
func parseDate(raw any) (time.Time, error) {
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(stringField(raw))
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

func stringField(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// boolField applies scripting-style truthiness to tolerate sloppy front
// matter: false, zero, "" and absent are false, everything else is true.
func boolField(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// intField parses ints out of native numbers or strings; on failure it
// silently falls back to def.
func intField(raw any, def int) int {
	switch v := raw.(type) {
	case nil:
		return def
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}

func defaultSummary(body []byte) string {
	runes := []rune(string(body))
	if len(runes) > summaryRunes {
		runes = runes[:summaryRunes]
	}
	return strings.TrimSpace(string(runes))
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
