package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeSiteTOML(t *testing.T, root string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte(body), 0o644))
}

func makeRequiredDirs(t *testing.T, root string) {
	t.Helper()
	for _, dir := range []string{"content/posts", "content/pages", "templates"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
}

const minimalTOML = `
[site]
title = "Test Site"
`

func TestLoad_MissingSiteRoot_Fails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	require.True(t, stderrors.Is(err, sgerrors.ErrSiteRootMissing))
}

func TestLoad_MissingConfigFile_Fails(t *testing.T) {
	root := t.TempDir()

	_, err := Load(root)

	require.Error(t, err)
	require.True(t, stderrors.Is(err, sgerrors.ErrConfigFileMissing))
}

func TestLoad_MalformedTOML_Fails(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, "[site]\ntitle = \"Broken\"\ninvalid = [1,,2]\n")

	_, err := Load(root)

	require.Error(t, err)
	require.True(t, stderrors.Is(err, sgerrors.ErrMalformedConfig))
}

func TestLoad_MissingRequiredDirectories_Fails(t *testing.T) {
	root := t.TempDir()
	writeSiteTOML(t, root, minimalTOML)

	_, err := Load(root)

	require.Error(t, err)
	require.True(t, stderrors.Is(err, sgerrors.ErrMissingDirectory))
	require.NotEmpty(t, sgerrors.PathOf(err))
}

func TestLoad_CreatesStaticAndOutputDirs(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, minimalTOML)

	cfg, err := Load(root)

	require.NoError(t, err)
	require.DirExists(t, cfg.Paths.StaticDir)
	require.DirExists(t, cfg.Paths.OutputDir)
	abs, _ := filepath.Abs(root)
	require.Equal(t, filepath.Join(abs, "static"), cfg.Paths.StaticDir)
	require.Equal(t, filepath.Join(abs, "output"), cfg.Paths.OutputDir)
}

func TestLoad_PreservesExistingOutputContents(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "output"), 0o755))
	marker := filepath.Join(root, "output", "marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("keep-me"), 0o644))
	writeSiteTOML(t, root, minimalTOML)

	_, err := Load(root)

	require.NoError(t, err)
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	require.Equal(t, "keep-me", string(data))
}

func TestLoad_PopulatesDefaults(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, minimalTOML)

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, "Test Site", cfg.Site.Title)
	require.Equal(t, "en", cfg.Site.Language)
	require.Equal(t, 10, cfg.Build.PostsPerPage)
	require.False(t, cfg.Build.IncludeDrafts)
	require.False(t, cfg.Search.Enabled)
	require.Equal(t, "assets/search", cfg.Search.OutputDir)
	require.Equal(t, "search/index.html", cfg.Search.PagePath)
	require.Equal(t, 300, cfg.Search.MaxTermsPerDoc)
	require.InEpsilon(t, 0.70, cfg.Search.DropDFRatio, 1e-9)
	require.True(t, cfg.Search.NormalizeByDocLen)
	require.Equal(t, "sitemap.xml", cfg.Sitemap.Output)
	require.True(t, cfg.Feeds.RSSEnabled)
	require.Equal(t, "excerpt", cfg.Feeds.Summary.Mode)
	require.Equal(t, 240, cfg.Feeds.Summary.MaxChars)
}

func TestLoad_UserValuesMergeOverDefaults(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, `
[site]
title = "Custom"

[build]
posts_per_page = 3

[search]
enabled = true
`)

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, "Custom", cfg.Site.Title)
	require.Equal(t, 3, cfg.Build.PostsPerPage)
	require.True(t, cfg.Search.Enabled)
	// Untouched siblings keep their defaults.
	require.Equal(t, "assets/search", cfg.Search.OutputDir)
	require.Equal(t, 2, cfg.Search.MinTokenLen)
}

func TestLoad_CanonicalizesLanguageTag(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, "[site]\ntitle = \"T\"\nlanguage = \"EN-us\"\n")

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, "en-US", cfg.Site.Language)
}

func TestLoad_KeepsUnparsableLanguageVerbatim(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, "[site]\ntitle = \"T\"\nlanguage = \"not a tag!!\"\n")

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, "not a tag!!", cfg.Site.Language)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	writeSiteTOML(t, root, "[site]\ntitle = \"From File\"\n")
	t.Setenv("SITEGEN_SITE_TITLE", "From Env")

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, "From Env", cfg.Site.Title)
}

func TestLoad_AbsolutePathOverrideRespected(t *testing.T) {
	root := t.TempDir()
	makeRequiredDirs(t, root)
	out := filepath.Join(t.TempDir(), "elsewhere")
	writeSiteTOML(t, root, "[site]\ntitle = \"T\"\n\n[paths]\noutput_dir = \""+filepath.ToSlash(out)+"\"\n")

	cfg, err := Load(root)

	require.NoError(t, err)
	require.Equal(t, filepath.Clean(out), cfg.Paths.OutputDir)
	require.DirExists(t, cfg.Paths.OutputDir)
}
