package pipeline

import (
	"context"
	"errors"
	"io"
	"time"
)

// Class decides how a stage failure affects the run: a blocking failure
// halts the pipeline, an advisory failure degrades the outcome and continues.
type Class string

const (
	ClassBlocking Class = "blocking"
	ClassAdvisory Class = "advisory"
)

// Conclusion is the per-stage result recorded in the journal and reported
// to status receivers.
type Conclusion string

const (
	ConclusionSuccess   Conclusion = "success"
	ConclusionUnstable  Conclusion = "unstable"
	ConclusionFailure   Conclusion = "failure"
	ConclusionSkipped   Conclusion = "skipped"
	ConclusionCancelled Conclusion = "cancelled"
)

var (
	// ErrSkip marks a stage that found nothing to act on. The runner logs
	// the skip and leaves the outcome untouched.
	ErrSkip = errors.New("nothing to do")

	// ErrCannotStart marks an action whose external tool is unavailable.
	// It halts the run even for advisory stages unless the stage opts
	// into the advisory guard.
	ErrCannotStart = errors.New("stage action cannot start")
)

type Stage interface {
	ID() string
	Name() string
	Class() Class
	Run(ctx context.Context, logWriter io.Writer) error
}

// Conditional is implemented by stages gated on a run condition. A false
// result skips the stage without affecting the outcome.
type Conditional interface {
	ShouldRun(ctx context.Context) (bool, error)
}

// AdvisoryGuard downgrades an ErrCannotStart on an advisory stage from a
// blocking failure to an advisory one.
type AdvisoryGuard interface {
	AllowMissingTool() bool
}

// Observer receives stage lifecycle events as the runner progresses.
type Observer interface {
	StageQueued(ctx context.Context, stage Stage, order int)
	StageStarted(ctx context.Context, stage Stage, startedAt time.Time)
	StageFinished(ctx context.Context, stage Stage, conclusion Conclusion, finishedAt time.Time)
}

// LogSink provides the per-stage log writer stage actions write to.
type LogSink interface {
	StageWriter(ctx context.Context, stageID string) io.WriteCloser
}

// Finalizer publishes accumulated artifacts. It runs exactly once per run,
// regardless of outcome.
type Finalizer interface {
	Finalize(ctx context.Context, outcome Outcome) error
}
