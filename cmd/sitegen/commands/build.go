package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/gitsource"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" name:"output" help:"Output directory for the generated site (overrides paths.output_dir)"`
	Drafts bool   `name:"drafts" help:"Include draft posts"`
	GitURL string `name:"git-url" help:"Build from a remote git repository instead of the local site root"`
	GitRef string `name:"git-ref" help:"Branch to check out when --git-url is set"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	siteRoot := root.Site
	output := b.Output
	if b.GitURL != "" {
		checkout, err := fetchRemoteSite(ctx, b.GitURL, b.GitRef)
		if err != nil {
			return err
		}
		siteRoot = checkout
		// The checkout lives in the cache; keep the generated tree local.
		if output == "" {
			output = "output"
		}
	}

	opts := site.Options{
		OutputDir: output,
		Progress:  printProgress,
	}
	if b.Drafts {
		drafts := true
		opts.IncludeDrafts = &drafts
	}

	report, err := site.BuildFromRoot(ctx, siteRoot, opts)
	recordBuild(ctx, siteRoot, report)
	if err != nil {
		return err
	}

	fmt.Printf("Build complete: %d posts, %d pages, %d files rendered in %d ms\n",
		report.Posts, report.Pages, report.FilesRendered, report.Duration().Milliseconds())
	fmt.Printf("Output: %s\n", report.OutputDir)
	return nil
}

// fetchRemoteSite clones or updates the remote site repository and returns
// the checkout path to use as the site root.
func fetchRemoteSite(ctx context.Context, url, ref string) (string, error) {
	checkout, err := gitsource.Fetch(ctx, gitCacheBase(), gitsource.Source{URL: url, Ref: ref})
	if err != nil {
		return "", fmt.Errorf("fetch site source: %w", err)
	}
	return checkout, nil
}

// gitCacheBase returns the directory holding cached remote site checkouts.
func gitCacheBase() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sitegen", "sources")
	}
	return filepath.Join(".sitegen", "sources")
}
