package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Load reads and assembles the configuration for the site rooted at siteRoot.
//
// The site root must exist and contain site.toml. User values merge over the
// built-in defaults (nested tables key-by-key, scalars and lists replacing),
// then SITEGEN_* environment variables override both. Path fields resolve to
// absolute paths against the site root; content, posts, pages and templates
// directories must already exist, static and output are created if missing.
func Load(siteRoot string) (*Config, error) {
	root, err := filepath.Abs(siteRoot)
	if err != nil {
		return nil, sgerrors.NewIOError(siteRoot, "cannot resolve site root", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, sgerrors.NewConfigError(sgerrors.ErrSiteRootMissing, root, "site root does not exist")
	}
	if !info.IsDir() {
		return nil, sgerrors.NewConfigError(sgerrors.ErrSiteRootNotDir, root, "site root is not a directory")
	}

	cfgPath := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(cfgPath); err != nil {
		return nil, sgerrors.NewConfigError(sgerrors.ErrConfigFileMissing, cfgPath, "site configuration file not found")
	}

	// Optional .env next to the process; ignored when absent.
	_ = godotenv.Load()

	v := viper.New()
	registerDefaults(v)
	v.SetConfigFile(cfgPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, sgerrors.NewConfigParseError(cfgPath, err)
	}
	v.SetEnvPrefix("SITEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sgerrors.NewConfigParseError(cfgPath, err)
	}

	var paths rawPaths
	if err := v.UnmarshalKey("paths", &paths); err != nil {
		return nil, sgerrors.NewConfigParseError(cfgPath, err)
	}

	cfg.Site.Language = canonicalLanguage(cfg.Site.Language)
	cfg.Paths = resolvePaths(root, paths)

	if err := validatePaths(cfg.Paths); err != nil {
		return nil, err
	}
	if err := ensureWritableDirs(cfg.Paths); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded", logfields.Path(cfgPath))
	return &cfg, nil
}

func resolvePaths(root string, raw rawPaths) SitePaths {
	return SitePaths{
		SiteRoot:     root,
		ContentDir:   resolveOne(root, raw.ContentDir),
		PostsDir:     resolveOne(root, raw.PostsDir),
		PagesDir:     resolveOne(root, raw.PagesDir),
		TemplatesDir: resolveOne(root, raw.TemplatesDir),
		StaticDir:    resolveOne(root, raw.StaticDir),
		OutputDir:    resolveOne(root, raw.OutputDir),
	}
}

func resolveOne(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// validatePaths checks the directories a build reads from. Source file
// contents are never validated here.
func validatePaths(paths SitePaths) error {
	required := []struct {
		name string
		dir  string
	}{
		{"content", paths.ContentDir},
		{"posts", paths.PostsDir},
		{"pages", paths.PagesDir},
		{"templates", paths.TemplatesDir},
	}
	for _, req := range required {
		info, err := os.Stat(req.dir)
		if err != nil || !info.IsDir() {
			return sgerrors.NewConfigError(sgerrors.ErrMissingDirectory, req.dir, "required "+req.name+" directory does not exist")
		}
	}
	return nil
}

// ensureWritableDirs creates static and output if absent. Existing contents
// are never touched.
func ensureWritableDirs(paths SitePaths) error {
	for _, dir := range []string{paths.StaticDir, paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sgerrors.NewIOError(dir, "cannot create directory", err)
		}
	}
	return nil
}

// canonicalLanguage normalizes a BCP 47 tag when it parses, keeping the raw
// value otherwise so odd-but-working sites keep building.
func canonicalLanguage(lang string) string {
	if lang == "" {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		slog.Warn("site.language is not a valid BCP 47 tag, keeping as-is", logfields.Name(lang))
		return lang
	}
	return tag.String()
}
