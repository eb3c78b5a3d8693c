// Package site orchestrates the build pipeline: content discovery, derived
// structures (tags, pagination, navigation), template rendering, static asset
// copy and the opt-in artifact generators (search, sitemap, feeds).
package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/feeds"
	"git.home.luguber.info/inful/sitegen/internal/foundation"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/search"
	"git.home.luguber.info/inful/sitegen/internal/sitemap"
)

// Builder runs the build pipeline for one site.
type Builder struct {
	cfg      *config.Config
	engine   *render.Engine
	md       *markdown.Renderer
	recorder metrics.Recorder
	progress ProgressFunc
	now      func() time.Time
}

// Options adjusts a build beyond the loaded configuration. OutputDir and
// IncludeDrafts override the corresponding config values when set.
type Options struct {
	OutputDir     string
	IncludeDrafts *bool
	Progress      ProgressFunc
	Recorder      metrics.Recorder
}

// NewBuilder prepares a Builder for the given configuration, applying the
// option overrides onto it. The output directory is created if missing.
func NewBuilder(cfg *config.Config, opts Options) (*Builder, error) {
	if opts.OutputDir != "" {
		abs, err := filepath.Abs(opts.OutputDir)
		if err != nil {
			return nil, sgerrors.NewIOError(opts.OutputDir, "cannot resolve output directory", err)
		}
		cfg.Paths.OutputDir = abs
	}
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, sgerrors.NewIOError(cfg.Paths.OutputDir, "cannot create output directory", err)
	}
	if opts.IncludeDrafts != nil {
		cfg.Build.IncludeDrafts = *opts.IncludeDrafts
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{
		cfg:      cfg,
		engine:   render.NewEngine(cfg.Paths.TemplatesDir),
		md:       markdown.NewRenderer(cfg.Build.SanitizeHTML),
		recorder: recorder,
		progress: opts.Progress,
		now:      time.Now,
	}, nil
}

// BuildFromRoot loads the configuration at siteRoot and runs a full build.
func BuildFromRoot(ctx context.Context, siteRoot string, opts Options) (*Report, error) {
	cfg, err := config.Load(siteRoot)
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(cfg, opts)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}

// buildState carries mutable state across stages of one build run.
type buildState struct {
	cfg      *config.Config
	engine   *render.Engine
	md       *markdown.Renderer
	report   *Report
	recorder metrics.Recorder
	progress ProgressFunc
	now      func() time.Time

	posts     []content.Post // draft-filtered, date-descending
	pages     []content.Page
	tagGroups []TagGroup
	base      BaseContext

	searchBuilder foundation.Option[*search.Builder]
	feedSettings  *feeds.Settings
	mapSettings   *sitemap.Settings
	mapEntries    []sitemap.Entry
}

func (bs *buildState) emit(stage StageName, current, total int, message string) {
	if bs.progress != nil {
		bs.progress(ProgressEvent{Stage: stage, Current: current, Total: total, Message: message})
	}
}

func (bs *buildState) addSitemapEntry(include bool, url string, lastMod *time.Time) {
	if !include {
		return
	}
	bs.mapEntries = append(bs.mapEntries, sitemap.Entry{Path: url, LastMod: lastMod})
}

// Build runs the full pipeline. On failure the returned error wraps the
// failing stage; nothing rendered before the failure is rolled back. The
// report is returned even when err is non-nil so callers can persist the
// failed run.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := newReport()
	report.OutputDir = b.cfg.Paths.OutputDir
	slog.Info("starting site build",
		logfields.BuildID(report.BuildID), logfields.Path(report.OutputDir))

	bs := &buildState{
		cfg:      b.cfg,
		engine:   b.engine,
		md:       b.md,
		report:   report,
		recorder: b.recorder,
		progress: b.progress,
		now:      b.now,
	}

	stages := []stageDef{
		{StageLoadingConfig, stageResolveFeatures},
		{StageDiscoveringContent, stageDiscoverContent},
		{StageRenderingTemplates, stageRenderTemplates},
		{StageCopyingStatic, stageCopyStatic},
		{StageGeneratingSitemap, stageGenerateSitemap},
		{StageGeneratingFeeds, stageGenerateFeeds},
	}

	err := runStages(ctx, bs, stages)
	report.finish()
	report.deriveOutcome()

	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(report.Outcome)
	b.recorder.AddFilesRendered(report.FilesRendered)

	if err != nil {
		slog.Error("site build failed",
			logfields.BuildID(report.BuildID), logfields.Error(err))
		return report, err
	}

	bs.emit(StageDone, 1, 1, "Build complete")
	slog.Info("site build complete",
		logfields.BuildID(report.BuildID),
		logfields.Outcome(report.Outcome),
		logfields.Count(report.FilesRendered),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

// stageResolveFeatures validates the opt-in feature blocks before any output
// is written. Failures here abort the build eagerly.
func stageResolveFeatures(ctx context.Context, bs *buildState) error {
	bs.emit(StageLoadingConfig, 0, 1, "Resolving configuration")

	bs.searchBuilder = foundation.None[*search.Builder]()
	if bs.cfg.Search.Enabled {
		builder, err := search.NewBuilder(bs.cfg)
		if err != nil {
			return newFatalStageError(StageLoadingConfig, err)
		}
		bs.searchBuilder = foundation.Some(builder)
	}

	feedSettings, err := feeds.ResolveSettings(bs.cfg)
	if err != nil {
		return newFatalStageError(StageLoadingConfig, err)
	}
	bs.feedSettings = feedSettings

	mapSettings, err := sitemap.ResolveSettings(bs.cfg)
	if err != nil {
		return newFatalStageError(StageLoadingConfig, err)
	}
	bs.mapSettings = mapSettings

	bs.emit(StageLoadingConfig, 1, 1, "Configuration ready")
	return nil
}

// stageDiscoverContent reads the content tree and derives the structures
// every later stage shares: the filtered sorted post list, tag groups and
// navigation.
func stageDiscoverContent(ctx context.Context, bs *buildState) error {
	bs.emit(StageDiscoveringContent, 0, 1, "Discovering content")

	posts, pages, err := content.Discover(bs.cfg.Paths, bs.md)
	if err != nil {
		return newFatalStageError(StageDiscoveringContent, err)
	}
	bs.pages = pages

	bs.posts = make([]content.Post, 0, len(posts))
	for _, post := range posts {
		if post.Draft && !bs.cfg.Build.IncludeDrafts {
			continue
		}
		bs.posts = append(bs.posts, post)
	}
	// Stable: posts sharing a date keep their discovery order.
	sort.SliceStable(bs.posts, func(i, j int) bool {
		return bs.posts[i].Date.After(bs.posts[j].Date)
	})

	bs.tagGroups = buildTagGroups(bs.posts)

	searchURL := ""
	var searchInfo *SearchInfo
	bs.searchBuilder.Match(func(sb *search.Builder) {
		pc := sb.PageContext()
		searchURL = sb.PageURL()
		searchInfo = &SearchInfo{
			PageURL:     sb.PageURL(),
			AssetsBase:  pc.AssetsBase,
			BundlePath:  pc.BundlePath,
			MinTokenLen: pc.MinTokenLen,
		}
	}, func() {})
	bs.base = BaseContext{
		Site:   bs.cfg.Site,
		Author: bs.cfg.Author,
		Nav:    buildNav(bs.pages, searchURL),
		Search: searchInfo,
	}

	bs.report.Posts = len(bs.posts)
	bs.report.Pages = len(bs.pages)
	bs.report.Tags = len(bs.tagGroups)

	slog.Info("content discovered",
		slog.Int("posts", len(bs.posts)),
		slog.Int("pages", len(bs.pages)),
		slog.Int("tags", len(bs.tagGroups)))
	bs.emit(StageDiscoveringContent, 1, 1,
		fmt.Sprintf("Found %d posts and %d pages", len(bs.posts), len(bs.pages)))
	return nil
}

// stageRenderTemplates writes every templated output file and collects
// sitemap entries along the way.
func stageRenderTemplates(ctx context.Context, bs *buildState) error {
	out := bs.cfg.Paths.OutputDir
	pageRefs := paginate(bs.posts, bs.cfg.Build.PostsPerPage)
	renderLegacyFeed := bs.engine.Has("feed.xml")

	total := len(pageRefs) + len(bs.posts) + len(bs.pages) + 1 + len(bs.tagGroups)
	if renderLegacyFeed {
		total++
	}
	if bs.searchBuilder.IsSome() {
		total++
	}
	done := 0
	step := func(rel string) {
		done++
		bs.report.FilesRendered++
		bs.emit(StageRenderingTemplates, done, total, rel)
		slog.Debug("rendered", logfields.File(rel))
	}
	bs.emit(StageRenderingTemplates, 0, total, "Rendering templates")

	for _, ref := range pageRefs {
		rel := "index.html"
		if ref.Number > 1 {
			rel = path.Join("page", strconv.Itoa(ref.Number), "index.html")
		}
		data := IndexContext{BaseContext: bs.base, Posts: ref.Posts, Pagination: ref}
		if err := bs.engine.RenderToFile("index.html", data, out, rel); err != nil {
			return newFatalStageError(StageRenderingTemplates, err)
		}
		bs.addSitemapEntry(bs.mapSettings.WantsIndex(), ref.URL, nil)
		step(rel)
	}

	for _, post := range bs.posts {
		rel := path.Join("posts", post.Slug, "index.html")
		if err := bs.engine.RenderToFile("post.html", PostContext{BaseContext: bs.base, Post: post}, out, rel); err != nil {
			return newFatalStageError(StageRenderingTemplates, err)
		}
		date := post.Date
		bs.addSitemapEntry(bs.mapSettings.WantsPosts(), post.URL, &date)
		step(rel)
	}

	for _, page := range bs.pages {
		rel := path.Join(page.Slug, "index.html")
		if err := bs.engine.RenderToFile("page.html", PageContext{BaseContext: bs.base, Page: page}, out, rel); err != nil {
			return newFatalStageError(StageRenderingTemplates, err)
		}
		bs.addSitemapEntry(bs.mapSettings.WantsPages(), page.URL, page.Date)
		step(rel)
	}

	if err := bs.engine.RenderToFile("tags.html", TagsContext{BaseContext: bs.base, Tags: bs.tagGroups}, out, "tags/index.html"); err != nil {
		return newFatalStageError(StageRenderingTemplates, err)
	}
	bs.addSitemapEntry(bs.mapSettings.WantsTags(), "/tags/", nil)
	step("tags/index.html")

	for _, group := range bs.tagGroups {
		rel := path.Join("tags", group.Slug, "index.html")
		if err := bs.engine.RenderToFile("tag.html", TagContext{BaseContext: bs.base, Tag: group}, out, rel); err != nil {
			return newFatalStageError(StageRenderingTemplates, err)
		}
		bs.addSitemapEntry(bs.mapSettings.WantsTags(), group.URL(), nil)
		step(rel)
	}

	// The legacy single-template feed ships only when the site provides the
	// template. The multi-format generator runs in its own stage.
	if renderLegacyFeed {
		n := bs.cfg.Build.FeedPosts
		if n < 0 {
			n = 0
		}
		feedPosts := bs.posts
		if n < len(feedPosts) {
			feedPosts = feedPosts[:n]
		}
		data := FeedContext{BaseContext: bs.base, Posts: feedPosts, BuildDate: bs.now()}
		if err := bs.engine.RenderToFile("feed.xml", data, out, "feed.xml"); err != nil {
			return newFatalStageError(StageRenderingTemplates, err)
		}
		step("feed.xml")
	}

	var searchErr error
	bs.searchBuilder.Match(func(sb *search.Builder) {
		if err := sb.WriteIndex(bs.posts, bs.pages, out); err != nil {
			searchErr = err
			return
		}
		rel := sb.PageSubpath()
		if err := bs.engine.RenderToFile("search.html", bs.base, out, rel); err != nil {
			searchErr = err
			return
		}
		bs.addSitemapEntry(bs.mapSettings.Enabled(), sb.PageURL(), nil)
		step(rel)
	}, func() {})
	if searchErr != nil {
		return newFatalStageError(StageRenderingTemplates, searchErr)
	}
	return nil
}

// stageCopyStatic replaces the output's static subtree with the site's
// static directory. A missing source directory skips the copy silently.
func stageCopyStatic(ctx context.Context, bs *buildState) error {
	bs.emit(StageCopyingStatic, 0, 1, "Copying static assets")
	if err := replaceStaticTree(bs.cfg.Paths.StaticDir, bs.cfg.Paths.OutputDir); err != nil {
		return newFatalStageError(StageCopyingStatic, err)
	}
	bs.emit(StageCopyingStatic, 1, 1, "Static assets copied")
	return nil
}

func stageGenerateSitemap(ctx context.Context, bs *buildState) error {
	if bs.mapSettings == nil {
		return nil
	}
	if err := sitemap.Generate(bs.mapSettings, bs.mapEntries, bs.cfg.Paths.OutputDir); err != nil {
		return newFatalStageError(StageGeneratingSitemap, err)
	}
	return nil
}

func stageGenerateFeeds(ctx context.Context, bs *buildState) error {
	if bs.feedSettings == nil {
		return nil
	}
	if err := feeds.Generate(bs.feedSettings, bs.posts, bs.pages, bs.cfg.Site, bs.cfg.Author, bs.cfg.Paths.OutputDir); err != nil {
		return newFatalStageError(StageGeneratingFeeds, err)
	}
	return nil
}
