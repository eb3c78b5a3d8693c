package errors

import "fmt"

// NewConfigError builds a fatal configuration error wrapping a sentinel kind.
// kind should be one of the Err* sentinels so errors.Is matching works.
func NewConfigError(kind error, path string, msg string) *SiteGenError {
	return &SiteGenError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Path:     path,
		Message:  msg,
		Cause:    kind,
	}
}

// NewConfigParseError wraps a parser failure on the site configuration file.
func NewConfigParseError(path string, cause error) *SiteGenError {
	return &SiteGenError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Path:     path,
		Message:  "cannot parse site configuration",
		Cause:    fmt.Errorf("%w: %w", ErrMalformedConfig, cause),
	}
}

// NewContentError builds a fatal content error for a single source file.
func NewContentError(kind error, file string, msg string) *SiteGenError {
	return &SiteGenError{
		Category: CategoryContent,
		Severity: SeverityFatal,
		Path:     file,
		Message:  msg,
		Cause:    kind,
	}
}

// NewContentParseError wraps a front matter parse failure on a source file.
func NewContentParseError(file string, cause error) *SiteGenError {
	return &SiteGenError{
		Category: CategoryContent,
		Severity: SeverityFatal,
		Path:     file,
		Message:  "cannot parse front matter",
		Cause:    fmt.Errorf("%w: %w", ErrInvalidFrontMatter, cause),
	}
}

// NewFeatureError builds a fatal feature-settings error. feature names the
// config block ("search", "sitemap", "feeds") so messages stay greppable.
func NewFeatureError(feature string, msg string) *SiteGenError {
	return &SiteGenError{
		Category: CategoryFeature,
		Severity: SeverityFatal,
		Message:  fmt.Sprintf("%s: %s", feature, msg),
		Cause:    ErrFeatureSettings,
	}
}

// NewUnsafePathError flags a feature output path that escapes the output root.
func NewUnsafePathError(feature string, value string) *SiteGenError {
	return &SiteGenError{
		Category: CategoryFeature,
		Severity: SeverityFatal,
		Path:     value,
		Message:  fmt.Sprintf("%s: output path must be relative and must not traverse outside the output directory", feature),
		Cause:    ErrUnsafeOutputPath,
	}
}

// NewIOError wraps a filesystem fault.
func NewIOError(path string, msg string, cause error) *SiteGenError {
	return &SiteGenError{
		Category: CategoryIO,
		Severity: SeverityFatal,
		Path:     path,
		Message:  msg,
		Cause:    cause,
	}
}
