package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/log/semconv"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TODO: may want to do it via debug.ReadBuildInfo
	tracerName = "github.com/conveyor-ci/conveyor/internal/pipeline"
)

// Runner executes stages strictly in order, aggregates the run outcome and
// always runs finalization exactly once.
type Runner struct {
	observers []Observer
	logs      LogSink
	finalizer Finalizer
	tracer    trace.Tracer
}

func NewRunner(options ...func(*Runner)) *Runner {
	runner := Runner{
		observers: make([]Observer, 0),
		logs:      discardSink{},
		finalizer: nil,
		tracer:    defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&runner)
	}

	return &runner
}

func (r *Runner) Run(ctx context.Context, stages []Stage) Outcome {
	ctx, span := r.tracer.Start(ctx, "run pipeline")
	defer span.End()

	for i, stage := range stages {
		r.notifyQueued(ctx, stage, i+1)
	}

	outcome := OutcomeSuccess

	for i, stage := range stages {
		if ctx.Err() != nil {
			outcome = outcome.Merge(OutcomeAborted)
			r.skipRemaining(ctx, stages[i:], ConclusionCancelled)
			break
		}

		stageOutcome := r.runStage(ctx, stage)
		outcome = outcome.Merge(stageOutcome)

		if stageOutcome == OutcomeFailure {
			r.skipRemaining(ctx, stages[i+1:], ConclusionSkipped)
			break
		}

		if stageOutcome == OutcomeAborted {
			r.skipRemaining(ctx, stages[i+1:], ConclusionCancelled)
			break
		}
	}

	r.finalize(ctx, outcome)

	return outcome
}

func (r *Runner) runStage(ctx context.Context, stage Stage) Outcome {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run stage %s", stage.Name()))
	defer span.End()

	logger := zerolog.Ctx(ctx).With().
		Str(semconv.StageID, stage.ID()).
		Str(semconv.StageName, stage.Name()).
		Str(semconv.StageClass, string(stage.Class())).
		Logger()
	ctx = logger.WithContext(ctx)

	if conditional, ok := stage.(Conditional); ok {
		shouldRun, err := conditional.ShouldRun(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("evaluate stage condition")
			r.notifyFinished(ctx, stage, ConclusionFailure, time.Now())

			return OutcomeFailure
		}

		if !shouldRun {
			logger.Info().Msg("stage condition not met, skipping")
			r.notifyFinished(ctx, stage, ConclusionSkipped, time.Now())

			return OutcomeSuccess
		}
	}

	r.notifyStarted(ctx, stage, time.Now())

	logWriter := r.logs.StageWriter(ctx, stage.ID())

	err := stage.Run(ctx, logWriter)

	// close before reporting so captured logs are complete when the
	// conclusion becomes visible
	logWriter.Close()

	switch {
	case err == nil:
		r.notifyFinished(ctx, stage, ConclusionSuccess, time.Now())
		return OutcomeSuccess

	case errors.Is(err, ErrSkip):
		logger.Info().Err(err).Msg("stage skipped")
		r.notifyFinished(ctx, stage, ConclusionSkipped, time.Now())

		return OutcomeSuccess

	case ctx.Err() != nil:
		logger.Warn().Err(err).Msg("stage interrupted")
		r.notifyFinished(ctx, stage, ConclusionCancelled, time.Now())

		return OutcomeAborted
	}

	blocking := stage.Class() == ClassBlocking

	// a tool that cannot start halts the run even for advisory stages,
	// unless the stage opted into the advisory guard
	if !blocking && errors.Is(err, ErrCannotStart) {
		guard, ok := stage.(AdvisoryGuard)
		if !ok || !guard.AllowMissingTool() {
			blocking = true
		}
	}

	if blocking {
		logger.Error().Err(err).Msg("stage failed")
		r.notifyFinished(ctx, stage, ConclusionFailure, time.Now())

		return OutcomeFailure
	}

	logger.Warn().Err(err).Msg("stage failed, continuing")
	r.notifyFinished(ctx, stage, ConclusionUnstable, time.Now())

	return OutcomeUnstable
}

func (r *Runner) finalize(ctx context.Context, outcome Outcome) {
	if r.finalizer == nil {
		return
	}

	// clean context, publication must survive an abort
	ctx = context.WithoutCancel(ctx)

	ctx, span := r.tracer.Start(ctx, "finalize run")
	defer span.End()

	if err := r.finalizer.Finalize(ctx, outcome); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("publish artifacts")
	}
}

func (r *Runner) skipRemaining(ctx context.Context, stages []Stage, conclusion Conclusion) {
	for _, stage := range stages {
		r.notifyFinished(ctx, stage, conclusion, time.Now())
	}
}

func (r *Runner) notifyQueued(ctx context.Context, stage Stage, order int) {
	for _, observer := range r.observers {
		observer.StageQueued(ctx, stage, order)
	}
}

func (r *Runner) notifyStarted(ctx context.Context, stage Stage, startedAt time.Time) {
	for _, observer := range r.observers {
		observer.StageStarted(ctx, stage, startedAt)
	}
}

func (r *Runner) notifyFinished(ctx context.Context, stage Stage, conclusion Conclusion, finishedAt time.Time) {
	for _, observer := range r.observers {
		observer.StageFinished(ctx, stage, conclusion, finishedAt)
	}
}

type discardSink struct{}

func (discardSink) StageWriter(_ context.Context, _ string) io.WriteCloser {
	return nopWriteCloser{io.Discard}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func WithObserver(observer Observer) func(*Runner) {
	return func(r *Runner) {
		r.observers = append(r.observers, observer)
	}
}

func WithLogSink(sink LogSink) func(*Runner) {
	return func(r *Runner) {
		r.logs = sink
	}
}

func WithFinalizer(finalizer Finalizer) func(*Runner) {
	return func(r *Runner) {
		r.finalizer = finalizer
	}
}

func WithTracerProvider(tp trace.TracerProvider) func(*Runner) {
	return func(r *Runner) {
		r.tracer = tp.Tracer(tracerName)
	}
}
