// Package render wraps html/template with the fixed template contract the
// generator relies on: named templates resolved from the site's templates
// directory, HTML pages composed on top of base.html, standalone templates
// (the legacy feed) executed as-is.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// BaseTemplate is the layout every HTML page template hangs off of.
const BaseTemplate = "base.html"

type compiled struct {
	tpl  *template.Template
	root string
}

// Engine renders named templates from a single templates directory.
// Parsed sets are cached per name; the engine is not safe for concurrent use.
type Engine struct {
	dir   string
	funcs template.FuncMap
	cache map[string]compiled
}

// NewEngine returns an engine reading templates from templatesDir.
func NewEngine(templatesDir string) *Engine {
	return &Engine{
		dir: templatesDir,
		funcs: template.FuncMap{
			"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
			"formatDate": formatDate,
		},
		cache: map[string]compiled{},
	}
}

// Has reports whether a template with the given name exists on disk.
func (e *Engine) Has(name string) bool {
	info, err := os.Stat(filepath.Join(e.dir, name))
	return err == nil && !info.IsDir()
}

// Render executes the named template with data and returns the output text.
// HTML templates are parsed together with base.html when it exists, so a page
// template only needs to fill the content block.
func (e *Engine) Render(name string, data any) (string, error) {
	c, err := e.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := c.tpl.ExecuteTemplate(&buf, c.root, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (e *Engine) load(name string) (compiled, error) {
	if c, ok := e.cache[name]; ok {
		return c, nil
	}

	named := filepath.Join(e.dir, name)
	if _, err := os.Stat(named); err != nil {
		return compiled{}, sgerrors.NewIOError(named, "template not found", err)
	}

	files := []string{named}
	root := name
	if name != BaseTemplate && strings.HasSuffix(name, ".html") && e.Has(BaseTemplate) {
		files = []string{filepath.Join(e.dir, BaseTemplate), named}
		root = BaseTemplate
	}

	tpl, err := template.New(root).Funcs(e.funcs).ParseFiles(files...)
	if err != nil {
		return compiled{}, fmt.Errorf("parse template %s: %w", name, err)
	}

	c := compiled{tpl: tpl, root: root}
	e.cache[name] = c
	return c, nil
}

// formatDate formats both value and pointer dates; a nil pointer renders as
// the empty string so templates can call it unguarded.
func formatDate(v any, layout string) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format(layout)
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.Format(layout)
	default:
		return ""
	}
}
