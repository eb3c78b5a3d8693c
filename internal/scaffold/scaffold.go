// Package scaffold materializes the embedded starter site used by the init
// command: configuration, templates, sample content and static assets.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

//go:embed assets
var assetsFS embed.FS

const assetsRoot = "assets"

// Init writes the starter site into dir, creating directories as needed.
// Existing files are never overwritten. Returns the number of files written.
func Init(dir string) (int, error) {
	created := 0
	err := fs.WalkDir(assetsFS, assetsRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, assetsRoot), "/")
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			return nil
		}

		if _, err := os.Stat(target); err == nil {
			slog.Debug("keeping existing file", logfields.Path(target))
			return nil
		}

		body, err := assetsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded asset %s: %w", path, err)
		}
		if err := os.WriteFile(target, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		created++
		return nil
	})
	return created, err
}
