package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySlug       = "slug"
	KeyTag        = "tag"
	KeyURL        = "url"
	KeyName       = "name"
	KeyCount      = "count"
	KeyBuildID    = "build_id"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
