package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to the site root.
type CLI struct {
	Site        string           `short:"s" help:"Site root directory" default:"."`
	LogLevel    string           `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat   string           `name:"log-format" help:"Log output format (text, json)" default:"text" enum:"text,json"`
	VersionFlag kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Scaffold a new site with starter content and templates"`
	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Serve   ServeCmd   `cmd:"" help:"Build the site and serve it over HTTP"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history store"`
	Version VersionCmd `cmd:"" help:"Show version and build metadata"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// progressLine formats one pipeline progress event for terminal output.
func progressLine(ev site.ProgressEvent) string {
	return fmt.Sprintf("[%s] %d/%d %s", ev.Stage, ev.Current, ev.Total, ev.Message)
}

func printProgress(ev site.ProgressEvent) {
	fmt.Println(progressLine(ev))
}

// historyRecord maps a build report onto a history row.
func historyRecord(report *site.Report) history.Record {
	return history.Record{
		BuildID:       report.BuildID,
		StartedAt:     report.Start,
		DurationMS:    report.Duration().Milliseconds(),
		Outcome:       report.Outcome,
		Posts:         report.Posts,
		Pages:         report.Pages,
		FilesRendered: report.FilesRendered,
		OutputDir:     report.OutputDir,
	}
}

// recordBuild appends the report to the site's history store. History
// failures never fail a build; they are logged and swallowed.
func recordBuild(ctx context.Context, siteRoot string, report *site.Report) {
	if report == nil {
		return
	}
	store, err := history.OpenAt(siteRoot)
	if err != nil {
		slog.Warn("Build history unavailable", logfields.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Append(ctx, historyRecord(report)); err != nil {
		slog.Warn("Failed to record build in history", logfields.BuildID(report.BuildID), logfields.Error(err))
	}
}
