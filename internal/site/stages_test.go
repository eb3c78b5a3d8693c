package site

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// captureRecorder records stage results for assertions.
type captureRecorder struct {
	metrics.NoopRecorder
	results map[string][]metrics.ResultLabel
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{results: map[string][]metrics.ResultLabel{}}
}

func (r *captureRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.results[stage] = append(r.results[stage], result)
}

func newStageTestState(rec metrics.Recorder) *buildState {
	return &buildState{report: newReport(), recorder: rec}
}

func namedStage(name StageName, fn func(*buildState) error) stageDef {
	return stageDef{name: name, fn: func(_ context.Context, bs *buildState) error { return fn(bs) }}
}

func TestRunStages_AllSucceed_RecordsDurations(t *testing.T) {
	rec := newCaptureRecorder()
	bs := newStageTestState(rec)
	var order []StageName
	stages := []stageDef{
		namedStage("one", func(*buildState) error { order = append(order, "one"); return nil }),
		namedStage("two", func(*buildState) error { order = append(order, "two"); return nil }),
	}

	err := runStages(context.Background(), bs, stages)

	require.NoError(t, err)
	require.Equal(t, []StageName{"one", "two"}, order)
	require.Contains(t, bs.report.StageDurations, StageName("one"))
	require.Contains(t, bs.report.StageDurations, StageName("two"))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.results["one"])
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.results["two"])
}

func TestRunStages_FatalError_StopsPipeline(t *testing.T) {
	rec := newCaptureRecorder()
	bs := newStageTestState(rec)
	boom := stderrors.New("boom")
	ran := false
	stages := []stageDef{
		namedStage("fails", func(*buildState) error { return newFatalStageError("fails", boom) }),
		namedStage("after", func(*buildState) error { ran = true; return nil }),
	}

	err := runStages(context.Background(), bs, stages)

	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.False(t, ran)
	require.Len(t, bs.report.Errors, 1)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultFatal}, rec.results["fails"])
}

func TestRunStages_WarningError_Continues(t *testing.T) {
	rec := newCaptureRecorder()
	bs := newStageTestState(rec)
	ran := false
	stages := []stageDef{
		namedStage("warns", func(*buildState) error { return newWarnStageError("warns", stderrors.New("minor")) }),
		namedStage("after", func(*buildState) error { ran = true; return nil }),
	}

	err := runStages(context.Background(), bs, stages)

	require.NoError(t, err)
	require.True(t, ran)
	require.Empty(t, bs.report.Errors)
	require.Len(t, bs.report.Warnings, 1)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultWarning}, rec.results["warns"])
}

func TestRunStages_UnclassifiedError_TreatedAsFatal(t *testing.T) {
	bs := newStageTestState(metrics.NoopRecorder{})
	stages := []stageDef{
		namedStage("plain", func(*buildState) error { return stderrors.New("unwrapped") }),
	}

	err := runStages(context.Background(), bs, stages)

	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.Equal(t, StageName("plain"), se.Stage)
}

func TestRunStages_CanceledContext_StopsBeforeNextStage(t *testing.T) {
	rec := newCaptureRecorder()
	bs := newStageTestState(rec)
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	stages := []stageDef{
		namedStage("first", func(*buildState) error { cancel(); return nil }),
		namedStage("second", func(*buildState) error { ran = true; return nil }),
	}

	err := runStages(ctx, bs, stages)

	require.Error(t, err)
	require.False(t, ran)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, StageName("second"), se.Stage)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultCanceled}, rec.results["second"])
}

func TestRunStages_CanceledStageError_Propagates(t *testing.T) {
	bs := newStageTestState(metrics.NoopRecorder{})
	stages := []stageDef{
		namedStage("interrupted", func(*buildState) error {
			return newCanceledStageError("interrupted", context.Canceled)
		}),
	}

	err := runStages(context.Background(), bs, stages)

	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStageError_MessageAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	se := newFatalStageError(StageCopyingStatic, cause)

	require.Equal(t, "fatal stage copying_static: disk full", se.Error())
	require.ErrorIs(t, se, cause)
}

func TestReport_DeriveOutcome(t *testing.T) {
	success := newReport()
	success.deriveOutcome()
	require.Equal(t, OutcomeSuccess, success.Outcome)

	warned := newReport()
	warned.Warnings = append(warned.Warnings, newWarnStageError("w", stderrors.New("minor")))
	warned.deriveOutcome()
	require.Equal(t, OutcomeWarning, warned.Outcome)

	failed := newReport()
	failed.Errors = append(failed.Errors, newFatalStageError("f", stderrors.New("bad")))
	failed.deriveOutcome()
	require.Equal(t, OutcomeFailed, failed.Outcome)

	canceled := newReport()
	canceled.Errors = append(canceled.Errors, newCanceledStageError("c", context.Canceled))
	canceled.deriveOutcome()
	require.Equal(t, OutcomeCanceled, canceled.Outcome)
}

func TestReport_DurationUsesEndWhenFinished(t *testing.T) {
	r := newReport()
	r.Start = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	r.End = r.Start.Add(1500 * time.Millisecond)

	require.Equal(t, 1500*time.Millisecond, r.Duration())
}
