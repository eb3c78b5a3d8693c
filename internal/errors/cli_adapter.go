package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the sitegen CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var sge *SiteGenError
	if stderrors.As(err, &sge) {
		switch sge.Category {
		case CategoryConfig:
			return 7
		case CategoryContent:
			return 3
		case CategoryFeature:
			return 4
		case CategoryIO:
			return 11
		case CategoryInternal:
			return 10
		}
	}
	return 1
}

// HandleError prints a human-readable message to stderr and returns the exit
// code. Verbose mode includes the wrapped cause chain.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}

	var sge *SiteGenError
	if stderrors.As(err, &sge) {
		if a.verbose && sge.Cause != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", sge.Error())
		} else if sge.Path != "" {
			fmt.Fprintf(os.Stderr, "error: %s (%s)\n", sge.Message, sge.Path)
		} else {
			fmt.Fprintf(os.Stderr, "error: %s\n", sge.Message)
		}
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	a.logger.Error("command failed", slog.String("category", string(CategoryOf(err))), slog.String("error", err.Error()))
	return a.ExitCodeFor(err)
}
