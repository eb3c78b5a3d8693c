package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// StageName is a strongly-typed identifier for a build stage. The first five
// values double as the progress-event tags reported to callers; the remaining
// stages run after the static copy and report timings only.
type StageName string

const (
	StageLoadingConfig      StageName = "loading_config"
	StageDiscoveringContent StageName = "discovering_content"
	StageRenderingTemplates StageName = "rendering_templates"
	StageCopyingStatic      StageName = "copying_static"
	StageDone               StageName = "done"

	StageGeneratingSitemap StageName = "generating_sitemap"
	StageGeneratingFeeds   StageName = "generating_feeds"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *buildState) error

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying stage, kind and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// stageDef pairs a stage name with its executing function.
type stageDef struct {
	name StageName
	fn   Stage
}

// runStages executes stages in order, recording per-stage timings and
// stopping on the first fatal or canceled error. Warning-kind errors are
// recorded and the run continues.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			bs.report.Errors = append(bs.report.Errors, se)
			bs.recorder.IncStageResult(string(st.name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.name] = dur
		bs.recorder.ObserveStageDuration(string(st.name), dur)

		if err == nil {
			bs.recorder.IncStageResult(string(st.name), metrics.ResultSuccess)
			continue
		}
		var se *StageError
		if !stderrors.As(err, &se) {
			// Unclassified errors abort the build.
			se = newFatalStageError(st.name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.report.Warnings = append(bs.report.Warnings, se)
			bs.recorder.IncStageResult(string(st.name), metrics.ResultWarning)
			continue
		case StageErrorCanceled:
			bs.report.Errors = append(bs.report.Errors, se)
			bs.recorder.IncStageResult(string(st.name), metrics.ResultCanceled)
			return se
		default:
			bs.report.Errors = append(bs.report.Errors, se)
			bs.recorder.IncStageResult(string(st.name), metrics.ResultFatal)
			return se
		}
	}
	return nil
}
