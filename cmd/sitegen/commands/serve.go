package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// watchDebounce is the quiet window applied to filesystem events before a
// rebuild fires. Editors tend to emit bursts of writes per save.
const watchDebounce = 300 * time.Millisecond

const shutdownTimeout = 5 * time.Second

// ServeCmd implements the 'serve' command: build once, then serve the output
// tree over HTTP, optionally rebuilding on file changes or a fixed interval.
type ServeCmd struct {
	Addr         string        `name:"addr" default:":8080" help:"HTTP listen address"`
	Watch        bool          `name:"watch" help:"Rebuild when content, templates or static files change"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Rebuild on a fixed interval (e.g. 10m), regardless of file changes"`
	Metrics      bool          `name:"metrics" help:"Expose Prometheus metrics on /metrics"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Loaded here only for the output and watch paths; each build reloads it.
	cfg, err := config.Load(root.Site)
	if err != nil {
		return err
	}

	opts := site.Options{}
	var registry *prom.Registry
	if s.Metrics {
		registry = prom.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(registry)
	}

	buildSite := func(buildOpts site.Options) {
		report, buildErr := site.BuildFromRoot(ctx, root.Site, buildOpts)
		recordBuild(ctx, root.Site, report)
		if buildErr != nil {
			slog.Error("Build failed; keeping last good output", logfields.Error(buildErr))
			return
		}
		slog.Info("Site built",
			logfields.Count(report.FilesRendered),
			logfields.DurationMS(float64(report.Duration().Milliseconds())))
	}

	initial := opts
	initial.Progress = printProgress
	buildSite(initial)

	rebuildReq := make(chan struct{}, 1)
	requestRebuild := func() {
		select {
		case rebuildReq <- struct{}{}:
		default:
		}
	}

	if s.Watch || s.RebuildEvery > 0 {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-rebuildReq:
					buildSite(opts)
				}
			}
		}()
	}

	if s.Watch {
		watcher, watchErr := startWatcher(ctx, watchDirs(cfg), debounce(watchDebounce, requestRebuild))
		if watchErr != nil {
			return watchErr
		}
		defer func() { _ = watcher.Close() }()
	}

	if s.RebuildEvery > 0 {
		scheduler, schedErr := startPeriodicRebuilds(s.RebuildEvery, requestRebuild)
		if schedErr != nil {
			return schedErr
		}
		defer func() { _ = scheduler.Shutdown() }()
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(cfg.Paths.OutputDir)))
	if s.Metrics {
		mux.Handle("/metrics", metrics.HTTPHandler(registry))
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           loggingHandler(slog.Default(), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Serving site", slog.String("addr", s.Addr), logfields.Path(cfg.Paths.OutputDir))
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// watchDirs lists the source trees that trigger rebuilds when they change.
// The output tree is deliberately absent; watching it would loop forever.
func watchDirs(cfg *config.Config) []string {
	return []string{cfg.Paths.ContentDir, cfg.Paths.TemplatesDir, cfg.Paths.StaticDir}
}

// debounce coalesces bursts of triggers into one call after a quiet window.
func debounce(window time.Duration, fn func()) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(window, fn)
	}
}

// startWatcher registers the given trees with fsnotify and forwards change
// events to trigger until the context is canceled.
func startWatcher(ctx context.Context, dirs []string, trigger func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, dir := range dirs {
		if err := addDirsRecursive(watcher, dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				handleFileEvent(watcher, ev, trigger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Watcher error", logfields.Error(err))
			}
		}
	}()

	slog.Info("Watching for changes", slog.Int("dirs", len(dirs)))
	return watcher, nil
}

// handleFileEvent processes a filesystem event and triggers a rebuild if needed.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	// New directories need their own watches for events beneath them.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds: hidden files, editor swap and backup files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

// startPeriodicRebuilds schedules unconditional full rebuilds. Useful for
// sites with future-dated posts that should appear once their date passes.
func startPeriodicRebuilds(interval time.Duration, trigger func()) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(trigger),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	scheduler.Start()
	slog.Info("Periodic rebuilds enabled", slog.Duration("every", interval))
	return scheduler, nil
}

// loggingHandler logs method, path, status and duration for each request.
func loggingHandler(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("HTTP request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", r.RemoteAddr))
	})
}

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
