package site

import (
	"io"
	"os"
	"path/filepath"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// replaceStaticTree mirrors the static source directory into
// <outputDir>/static, deleting any previous tree first (replace, not merge).
// A missing source directory is a no-op.
func replaceStaticTree(staticDir, outputDir string) error {
	info, err := os.Stat(staticDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	target := filepath.Join(outputDir, "static")
	if err := os.RemoveAll(target); err != nil {
		return sgerrors.NewIOError(target, "cannot clear static output tree", err)
	}
	if err := copyTree(staticDir, target); err != nil {
		return err
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return sgerrors.NewIOError(path, "cannot read static source", err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return sgerrors.NewIOError(target, "cannot create static output directory", err)
			}
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return sgerrors.NewIOError(src, "cannot open static file", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return sgerrors.NewIOError(dst, "cannot create static file", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return sgerrors.NewIOError(dst, "cannot copy static file", err)
	}
	return nil
}
