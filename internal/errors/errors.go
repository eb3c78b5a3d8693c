// Package errors provides a lightweight structured error type (SiteGenError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a sitegen error for classification.
type ErrorCategory string

const (
	// CategoryConfig covers site-root, site.toml and path-resolution failures.
	CategoryConfig ErrorCategory = "config"
	// CategoryContent covers per-file front matter and metadata failures.
	CategoryContent ErrorCategory = "content"
	// CategoryFeature covers opt-in feature settings (search, sitemap, feeds).
	CategoryFeature ErrorCategory = "feature"
	// CategoryIO covers filesystem faults outside the above.
	CategoryIO ErrorCategory = "io"
	// CategoryInternal covers bugs and unclassified failures.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityWarning ErrorSeverity = "warning" // Logged, build continues
)

// Sentinel kinds. Constructors wrap these so callers can match with errors.Is
// without depending on message text.
var (
	ErrSiteRootMissing    = stderrors.New("site root does not exist")
	ErrSiteRootNotDir     = stderrors.New("site root is not a directory")
	ErrConfigFileMissing  = stderrors.New("site configuration file not found")
	ErrMalformedConfig    = stderrors.New("malformed configuration document")
	ErrMissingDirectory   = stderrors.New("required directory missing")
	ErrInvalidFrontMatter = stderrors.New("invalid front matter")
	ErrMissingField       = stderrors.New("missing required front matter field")
	ErrInvalidFieldValue  = stderrors.New("invalid front matter field value")
	ErrFeatureSettings    = stderrors.New("invalid feature settings")
	ErrUnsafeOutputPath   = stderrors.New("unsafe output path")
)

// SiteGenError is the structured error used across the generator.
type SiteGenError struct {
	Category ErrorCategory
	Severity ErrorSeverity
	Path     string // offending file or directory, when known
	Message  string
	Cause    error
}

func (e *SiteGenError) Error() string {
	switch {
	case e.Path != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Category, e.Message, e.Path, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Category, e.Message, e.Path)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

func (e *SiteGenError) Unwrap() error { return e.Cause }

// CategoryOf returns the category of err if it is (or wraps) a SiteGenError,
// CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var sge *SiteGenError
	if stderrors.As(err, &sge) {
		return sge.Category
	}
	return CategoryInternal
}

// PathOf returns the offending path of err if it carries one.
func PathOf(err error) string {
	var sge *SiteGenError
	if stderrors.As(err, &sge) {
		return sge.Path
	}
	return ""
}
