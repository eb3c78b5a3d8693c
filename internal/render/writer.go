package render

import (
	"os"
	"path/filepath"
	"strings"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// SanitizeRelativePath normalizes a configured output subpath: backslashes
// become forward slashes, leading "./" and "/" prefixes are stripped, "." and
// empty segments are dropped, and empty results fall back to fallback. Any
// ".." segment is rejected. feature names the config block for error
// attribution.
func SanitizeRelativePath(feature, raw, fallback string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		text = fallback
	}
	text = strings.ReplaceAll(text, "\\", "/")
	for strings.HasPrefix(text, "./") {
		text = text[2:]
	}
	text = strings.TrimLeft(text, "/")
	if text == "" {
		text = fallback
	}

	var parts []string
	for _, part := range strings.Split(text, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", sgerrors.NewUnsafePathError(feature, raw)
		}
		parts = append(parts, part)
	}
	normalized := strings.Join(parts, "/")
	if normalized == "" {
		normalized = fallback
	}
	return normalized, nil
}

// SafeJoin joins rel under root and rejects absolute paths and any path that
// would land outside root after cleaning.
func SafeJoin(root, rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", sgerrors.NewUnsafePathError("output", rel)
	}
	full := filepath.Join(root, cleaned)
	check, err := filepath.Rel(root, full)
	if err != nil || check == ".." || strings.HasPrefix(check, ".."+string(filepath.Separator)) {
		return "", sgerrors.NewUnsafePathError("output", rel)
	}
	return full, nil
}

// WriteFile writes data to rel under root, creating parent directories and
// overwriting a previous build's artifact.
func WriteFile(root, rel string, data []byte) error {
	full, err := SafeJoin(root, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return sgerrors.NewIOError(filepath.Dir(full), "cannot create output directory", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return sgerrors.NewIOError(full, "cannot write output file", err)
	}
	return nil
}

// RenderToFile renders the named template and writes the result to rel under
// root.
func (e *Engine) RenderToFile(name string, data any, root, rel string) error {
	out, err := e.Render(name, data)
	if err != nil {
		return err
	}
	return WriteFile(root, rel, []byte(out))
}
