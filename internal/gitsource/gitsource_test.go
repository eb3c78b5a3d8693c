package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"
)

func initSourceRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "site.toml", "[site]\ntitle = \"Remote Site\"\n")
	return dir, repo
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add(name)
	require.NoError(t, err)
	_, err = worktree.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestCacheDir_StablePerURL(t *testing.T) {
	base := t.TempDir()

	a := CacheDir(base, "https://example.com/blog.git")
	b := CacheDir(base, "https://example.com/blog.git")
	other := CacheDir(base, "https://example.com/docs.git")

	require.Equal(t, a, b)
	require.NotEqual(t, a, other)
	require.Equal(t, base, filepath.Dir(a))
	require.True(t, strings.HasPrefix(filepath.Base(a), "blog-"))
}

func TestCacheDir_OddURLsStayDirectorySafe(t *testing.T) {
	base := t.TempDir()

	dir := CacheDir(base, "git@example.com:team/My Blog.git")
	require.Equal(t, base, filepath.Dir(dir))
	require.NotContains(t, filepath.Base(dir), " ")

	fallback := CacheDir(base, "///")
	require.True(t, strings.HasPrefix(filepath.Base(fallback), "site-"))
}

func TestFetch_EmptyURL_Fails(t *testing.T) {
	_, err := Fetch(context.Background(), t.TempDir(), Source{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "URL")
}

func TestFetch_ClonesThenPulls(t *testing.T) {
	srcDir, repo := initSourceRepo(t)
	base := t.TempDir()
	src := Source{URL: srcDir, Ref: "master"}

	checkout, err := Fetch(context.Background(), base, src)
	require.NoError(t, err)
	body, err := os.ReadFile(filepath.Join(checkout, "site.toml"))
	require.NoError(t, err)
	require.Contains(t, string(body), "Remote Site")

	// A second fetch reuses the cache and tolerates no upstream changes.
	again, err := Fetch(context.Background(), base, src)
	require.NoError(t, err)
	require.Equal(t, checkout, again)

	// Upstream commits arrive on the next fetch.
	commitFile(t, repo, srcDir, "extra.md", "new content\n")
	_, err = Fetch(context.Background(), base, src)
	require.NoError(t, err)
	extra, err := os.ReadFile(filepath.Join(checkout, "extra.md"))
	require.NoError(t, err)
	require.Equal(t, "new content\n", string(extra))
}

func TestFetch_CorruptCache_Reclones(t *testing.T) {
	srcDir, _ := initSourceRepo(t)
	base := t.TempDir()
	src := Source{URL: srcDir}

	checkout, err := Fetch(context.Background(), base, src)
	require.NoError(t, err)

	// Wreck the cached repository metadata; the next fetch must recover.
	require.NoError(t, os.RemoveAll(filepath.Join(checkout, ".git", "refs")))
	require.NoError(t, os.WriteFile(filepath.Join(checkout, ".git", "HEAD"), []byte("garbage"), 0o644))

	recovered, err := Fetch(context.Background(), base, src)
	require.NoError(t, err)
	require.Equal(t, checkout, recovered)
	_, err = os.Stat(filepath.Join(recovered, "site.toml"))
	require.NoError(t, err)
}

func TestAuthFromEnv(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	require.Nil(t, authFromEnv())

	t.Setenv(TokenEnvVar, "sekrit")
	auth := authFromEnv()
	basic, ok := auth.(*githttp.BasicAuth)
	require.True(t, ok)
	require.Equal(t, "token", basic.Username)
	require.Equal(t, "sekrit", basic.Password)
}

func TestURLSlug(t *testing.T) {
	cases := map[string]string{
		"https://example.com/team/blog.git": "blog",
		"https://example.com/team/blog/":    "blog",
		"git@example.com:team/notes.git":    "notes",
		"https://example.com/UPPER.git":     "upper",
		"":                                  "site",
	}
	for url, want := range cases {
		require.Equal(t, want, urlSlug(url), "url %q", url)
	}
}
