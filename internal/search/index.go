package search

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/htmltext"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

//go:embed assets/search.js
var searchAppJS []byte

// Document is one entry of the docs artifact. Field order matches the wire
// format consumed by the client bundle.
type Document struct {
	ID      int      `json:"id"`
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Date    *string  `json:"date"`
	Excerpt string   `json:"excerpt"`
}

type documentRecord struct {
	doc          Document
	tokenWeights map[string]float64
	bodyTokens   int
}

type docsPayload struct {
	Version     int        `json:"version"`
	GeneratedAt string     `json:"generated_at"`
	DocCount    int        `json:"doc_count"`
	Docs        []Document `json:"docs"`
}

// termPosting marshals as the two-element [doc_id, score] array the client
// bundle consumes.
type termPosting struct {
	DocID int
	Score float64
}

func (p termPosting) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.DocID, p.Score})
}

// PageContext carries the values the search page template needs to boot the
// client bundle.
type PageContext struct {
	AssetsBase  string
	BundlePath  string
	MinTokenLen int
}

// Builder turns discovered content into the search index artifacts. It is
// constructed only when search is enabled; path settings are sanitized
// eagerly so misconfiguration fails before any file is written.
type Builder struct {
	settings      Settings
	outputSubpath string
	pageSubpath   string
	assetsBaseURL string
	pageURL       string
	now           func() time.Time
}

// NewBuilder validates the search configuration and prepares a builder.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	if !cfg.Search.Enabled {
		return nil, sgerrors.NewFeatureError("search", "builder requires search.enabled = true")
	}
	outputSub, err := render.SanitizeRelativePath("search", cfg.Search.OutputDir, defaultOutputDir)
	if err != nil {
		return nil, err
	}
	pageSub, err := render.SanitizeRelativePath("search", cfg.Search.PagePath, defaultPagePath)
	if err != nil {
		return nil, err
	}
	return &Builder{
		settings:      SettingsFromConfig(cfg.Search),
		outputSubpath: outputSub,
		pageSubpath:   pageSub,
		assetsBaseURL: pathToURL(outputSub),
		pageURL:       pageURLFromPath(pageSub),
		now:           time.Now,
	}, nil
}

// PageURL is the site-relative URL of the search page, used for navigation.
func (b *Builder) PageURL() string { return b.pageURL }

// PageSubpath is the output-relative file path of the rendered search page.
func (b *Builder) PageSubpath() string { return b.pageSubpath }

// PageContext returns the template values for the search page.
func (b *Builder) PageContext() PageContext {
	return PageContext{
		AssetsBase:  b.assetsBaseURL,
		BundlePath:  b.assetsBaseURL + "/search.js",
		MinTokenLen: b.settings.MinTokenLen,
	}
}

// WriteIndex emits search_docs.json, search_terms.json and the client bundle
// under the builder's output subpath. Documents are numbered sequentially in
// the order received: posts first, then pages sorted by (slug, lowercased
// title).
func (b *Builder) WriteIndex(posts []content.Post, pages []content.Page, outputDir string) error {
	records := b.collectDocuments(posts, pages)

	docsJSON, err := marshalCompact(b.buildDocsPayload(records))
	if err != nil {
		return fmt.Errorf("encode search docs: %w", err)
	}
	termsJSON, err := marshalCompact(buildTermsIndex(records, b.settings))
	if err != nil {
		return fmt.Errorf("encode search terms: %w", err)
	}

	if err := render.WriteFile(outputDir, path.Join(b.outputSubpath, "search_docs.json"), docsJSON); err != nil {
		return err
	}
	if err := render.WriteFile(outputDir, path.Join(b.outputSubpath, "search_terms.json"), termsJSON); err != nil {
		return err
	}
	return render.WriteFile(outputDir, path.Join(b.outputSubpath, "search.js"), searchAppJS)
}

func (b *Builder) collectDocuments(posts []content.Post, pages []content.Page) []documentRecord {
	records := make([]documentRecord, 0, len(posts)+len(pages))
	nextID := 0

	for _, post := range posts {
		bodyText := htmltext.ExtractText(post.ContentHTML)
		summarySource := post.Summary
		if summarySource == "" {
			summarySource = bodyText
		}
		date := post.Date.Format("2006-01-02")
		doc := Document{
			ID:      nextID,
			URL:     post.URL,
			Title:   post.Title,
			Tags:    post.Tags,
			Date:    &date,
			Excerpt: htmltext.NormalizeExcerpt(htmltext.ExtractText(summarySource), excerptLimit),
		}
		weights, bodyCount := collectTokenWeights(post.Title, post.Tags, bodyText, b.settings)
		records = append(records, documentRecord{doc: doc, tokenWeights: weights, bodyTokens: bodyCount})
		nextID++
	}

	sortedPages := make([]content.Page, len(pages))
	copy(sortedPages, pages)
	sort.SliceStable(sortedPages, func(i, j int) bool {
		if sortedPages[i].Slug != sortedPages[j].Slug {
			return sortedPages[i].Slug < sortedPages[j].Slug
		}
		return strings.ToLower(sortedPages[i].Title) < strings.ToLower(sortedPages[j].Title)
	})
	for _, page := range sortedPages {
		bodyText := htmltext.ExtractText(page.ContentHTML)
		doc := Document{
			ID:      nextID,
			URL:     page.URL,
			Title:   page.Title,
			Tags:    []string{},
			Date:    nil,
			Excerpt: htmltext.NormalizeExcerpt(bodyText, excerptLimit),
		}
		weights, bodyCount := collectTokenWeights(page.Title, nil, bodyText, b.settings)
		records = append(records, documentRecord{doc: doc, tokenWeights: weights, bodyTokens: bodyCount})
		nextID++
	}

	return records
}

func (b *Builder) buildDocsPayload(records []documentRecord) docsPayload {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = r.doc
	}
	return docsPayload{
		Version:     IndexVersion,
		GeneratedAt: b.now().UTC().Truncate(time.Second).Format(time.RFC3339),
		DocCount:    len(docs),
		Docs:        docs,
	}
}

// collectTokenWeights accumulates per-token weights from the three sources.
// The same token gathers weight from body, title and tags additively. The
// returned count is the total number of body tokens, used for length
// normalization.
func collectTokenWeights(title string, tags []string, bodyText string, s Settings) (map[string]float64, int) {
	weights := map[string]float64{}

	bodyTokens := Tokenize(bodyText, s.MinTokenLen)
	for _, tok := range bodyTokens {
		weights[tok] += s.WeightBody
	}

	for _, tok := range Tokenize(title, s.MinTokenLen) {
		weights[tok] += s.WeightTitle
	}

	for _, tag := range tags {
		for _, tok := range Tokenize(tag, s.MinTokenLen) {
			weights[tok] += s.WeightTags
		}
	}

	return weights, len(bodyTokens)
}

func buildTermsIndex(records []documentRecord, s Settings) map[string][]termPosting {
	docCount := len(records)
	out := map[string][]termPosting{}
	if docCount == 0 {
		return out
	}

	df := map[string]int{}
	for _, r := range records {
		for token := range r.tokenWeights {
			df[token]++
		}
	}

	terms := map[string][]termPosting{}
	for _, r := range records {
		for _, st := range scoreDocumentTokens(r.tokenWeights, df, docCount, r.bodyTokens, s) {
			terms[st.token] = append(terms[st.token], termPosting{DocID: r.doc.ID, Score: st.score})
		}
	}

	for token, postings := range terms {
		sort.Slice(postings, func(i, j int) bool {
			if postings[i].Score != postings[j].Score {
				return postings[i].Score > postings[j].Score
			}
			return postings[i].DocID < postings[j].DocID
		})
		rounded := make([]termPosting, len(postings))
		for i, p := range postings {
			rounded[i] = termPosting{DocID: p.DocID, Score: round6(p.Score)}
		}
		out[token] = rounded
	}
	return out
}

type scoredToken struct {
	token string
	score float64
}

// scoreDocumentTokens scores each surviving token as tf*idf with
// tf = 1 + ln(weight) and idf = ln((N+1)/(df+1)) + 1, optionally divided by
// sqrt(body token count). Only the top MaxTermsPerDoc tokens survive, ties
// broken by token lexical order.
func scoreDocumentTokens(weights map[string]float64, df map[string]int, docCount, bodyCount int, s Settings) []scoredToken {
	scored := make([]scoredToken, 0, len(weights))
	for token, weight := range weights {
		if weight <= 0 {
			continue
		}
		if ShouldDropToken(df[token], docCount, s) {
			continue
		}
		tf := 1.0 + math.Log(weight)
		idf := math.Log(float64(docCount+1)/float64(df[token]+1)) + 1.0
		score := tf * idf
		if s.NormalizeByDocLen && bodyCount > 0 {
			score /= math.Sqrt(float64(bodyCount))
		}
		scored = append(scored, scoredToken{token: token, score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].token < scored[j].token
	})
	if len(scored) > s.MaxTermsPerDoc {
		scored = scored[:s.MaxTermsPerDoc]
	}
	return scored
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// marshalCompact encodes without HTML escaping and without a trailing
// newline, keeping the artifacts byte-stable across builds.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func pathToURL(subpath string) string {
	if subpath == "" || subpath == "." {
		return "/"
	}
	return "/" + strings.TrimLeft(subpath, "/")
}

func pageURLFromPath(subpath string) string {
	url := pathToURL(subpath)
	if strings.HasSuffix(url, "index.html") {
		trimmed := strings.TrimSuffix(url, "index.html")
		if trimmed == "" {
			return "/"
		}
		return trimmed
	}
	return url
}
