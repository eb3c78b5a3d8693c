package site

import (
	stderrors "errors"
	"time"

	"github.com/google/uuid"
)

// Outcome values for a finished build.
const (
	OutcomeSuccess  = "success"
	OutcomeWarning  = "warning"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Report summarizes one build run.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	OutputDir      string
	Posts          int
	Pages          int
	Tags           int
	FilesRendered  int
	StageDurations map[StageName]time.Duration
	Errors         []error
	Warnings       []error
	Outcome        string
}

func newReport() *Report {
	return &Report{
		BuildID:        uuid.NewString(),
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// Duration returns the wall-clock build time.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

func (r *Report) finish() { r.End = time.Now() }

// deriveOutcome sets Outcome from the recorded errors and warnings.
func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, err := range r.Errors {
			var se *StageError
			if stderrors.As(err, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}
