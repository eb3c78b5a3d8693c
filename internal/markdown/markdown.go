// Package markdown renders Markdown bodies (frontmatter already removed) to
// HTML fragments for templating.
package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML. The zero value is not usable; construct
// with NewRenderer.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds a GFM-capable renderer. Raw HTML in the source passes
// through unchanged unless sanitize is set, in which case the rendered
// fragment is filtered through a UGC policy.
func NewRenderer(sanitize bool) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
	if sanitize {
		r.policy = bluemonday.UGCPolicy()
	}
	return r
}

// Render converts a Markdown body to an HTML fragment.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", err
	}
	if r.policy != nil {
		return r.policy.Sanitize(buf.String()), nil
	}
	return buf.String(), nil
}
