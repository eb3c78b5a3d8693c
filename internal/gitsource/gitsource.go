// Package gitsource fetches a site's source tree from a git remote into a
// local per-URL cache directory, cloning on first use and pulling afterwards.
package gitsource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// TokenEnvVar names the environment variable read for HTTP token auth.
const TokenEnvVar = "SITEGEN_GIT_TOKEN"

// Source describes a remote site source.
type Source struct {
	URL string
	Ref string // branch name; empty uses the remote default
}

// CacheDir derives the checkout directory for a URL under baseDir. The name
// combines a readable slug with a hash so distinct URLs never collide.
func CacheDir(baseDir, url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(baseDir, urlSlug(url)+"-"+hex.EncodeToString(sum[:])[:12])
}

// Fetch clones or updates src into its cache directory under baseDir and
// returns the checkout path. A cache that fails to pull (diverged history,
// switched ref) is discarded and cloned fresh.
func Fetch(ctx context.Context, baseDir string, src Source) (string, error) {
	if strings.TrimSpace(src.URL) == "" {
		return "", fmt.Errorf("git source requires a URL")
	}
	dir := CacheDir(baseDir, src.URL)

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		path, err := pull(ctx, dir, src)
		if err == nil {
			return path, nil
		}
		slog.Warn("cached checkout cannot be updated, recloning",
			logfields.URL(src.URL), logfields.Path(dir), logfields.Error(err))
	}

	return clone(ctx, dir, src)
}

func clone(ctx context.Context, dir string, src Source) (string, error) {
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clear checkout directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:  src.URL,
		Auth: authFromEnv(),
	}
	if src.Ref != "" {
		opts.ReferenceName = refName(src.Ref)
		opts.SingleBranch = true
	}

	slog.Debug("cloning site source", logfields.URL(src.URL), logfields.Path(dir))
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone site source %s: %w", src.URL, err)
	}

	if head, err := repo.Head(); err == nil {
		slog.Info("site source cloned",
			logfields.URL(src.URL), slog.String("commit", head.Hash().String()[:8]))
	}
	return dir, nil
}

func pull(ctx context.Context, dir string, src Source) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open cached checkout: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	opts := &git.PullOptions{
		RemoteName: "origin",
		Auth:       authFromEnv(),
	}
	if src.Ref != "" {
		opts.ReferenceName = refName(src.Ref)
		opts.SingleBranch = true
	}

	err = worktree.PullContext(ctx, opts)
	switch err {
	case nil:
		if head, headErr := repo.Head(); headErr == nil {
			slog.Info("site source updated",
				logfields.URL(src.URL), slog.String("commit", head.Hash().String()[:8]))
		}
	case git.NoErrAlreadyUpToDate:
		slog.Debug("site source already up to date", logfields.URL(src.URL))
	default:
		return "", fmt.Errorf("pull site source %s: %w", src.URL, err)
	}
	return dir, nil
}

func refName(branch string) plumbing.ReferenceName {
	return plumbing.ReferenceName("refs/heads/" + branch)
}

// authFromEnv builds token auth from the environment; forges accept the token
// as a basic-auth password with any non-empty username.
func authFromEnv() transport.AuthMethod {
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: token}
}

// urlSlug reduces a URL to a short directory-name-safe tail.
func urlSlug(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(trimmed) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "site"
	}
	return b.String()
}
