package statussync_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/conveyor-ci/conveyor/internal/commands/run/statussync"
	"github.com/conveyor-ci/conveyor/internal/commands/run/statussync/fakes"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/repository/statushook"
	"github.com/conveyor-ci/conveyor/internal/util/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	id    string
	name  string
	class pipeline.Class
}

func (s *fakeStage) ID() string {
	return s.id
}

func (s *fakeStage) Name() string {
	return s.name
}

func (s *fakeStage) Class() pipeline.Class {
	return s.class
}

func (s *fakeStage) Run(_ context.Context, _ io.Writer) error {
	return nil
}

func TestController(t *testing.T) {
	const runID = "run_id"

	stage1 := &fakeStage{id: "stage1", name: "Stage 1", class: pipeline.ClassBlocking}
	stage2 := &fakeStage{id: "stage2", name: "Stage 2", class: pipeline.ClassAdvisory}
	stage3 := &fakeStage{id: "stage3", name: "Stage 3", class: pipeline.ClassBlocking}

	t.Run("start & shutdown", func(t *testing.T) {
		fakeStatusReceiver := fakes.FakeStatusReceiver{}

		t.Run("with empty queue", func(t *testing.T) {
			// init
			ctrl := statussync.NewController(&fakeStatusReceiver, runID)

			// start
			ctrl.Start(context.Background())

			// shutdown
			err := ctrl.Shutdown(context.Background())
			require.NoError(t, err)
		})

		t.Run("with non empty queue", func(t *testing.T) {
			// init
			ctrl := statussync.NewController(&fakeStatusReceiver, runID)

			// start
			ctrl.Start(context.Background())

			// queue stages
			ctrl.StageQueued(context.Background(), stage1, 1)
			ctrl.StageQueued(context.Background(), stage2, 2)
			ctrl.StageQueued(context.Background(), stage3, 3)

			// shutdown
			err := ctrl.Shutdown(context.Background())
			require.NoError(t, err)
		})
	})

	t.Run("abort", func(t *testing.T) {
		t.Run("keeps accepting events after run context cancellation", func(t *testing.T) {
			ticker := timeutil.NewFakeTicker()
			fakeStatusReceiver := fakes.FakeStatusReceiver{}

			eventProcessedChan := make(chan struct{})

			// init
			ctrl := statussync.NewController(
				&fakeStatusReceiver,
				runID,
				statussync.WithHookEventProcessed(eventProcessedChan),
				statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(ticker)),
			)

			// start on a cancellable context
			ctx, cancel := context.WithCancel(context.Background())
			ctrl.Start(ctx)

			ctrl.StageQueued(ctx, stage1, 1)
			<-eventProcessedChan
			ctrl.StageQueued(ctx, stage2, 2)
			<-eventProcessedChan

			// abort the run; the runner still reports the interrupted and
			// skipped stages afterwards, and those sends must not block
			cancel()

			ctrl.StageFinished(ctx, stage1, pipeline.ConclusionCancelled, time.Now())
			<-eventProcessedChan
			ctrl.StageFinished(ctx, stage2, pipeline.ConclusionCancelled, time.Now())
			<-eventProcessedChan

			// shutdown flushes everything seen so far
			err := ctrl.Shutdown(context.Background())
			require.NoError(t, err)

			require.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount())

			_, _, _, stages := fakeStatusReceiver.UpdateStagesArgsForCall(0)
			require.Len(t, stages, 2)
			assert.Equal(t, string(pipeline.ConclusionCancelled), stages[0].Conclusion)
			assert.Equal(t, string(pipeline.ConclusionCancelled), stages[1].Conclusion)
		})

		t.Run("doesn't block once shut down", func(t *testing.T) {
			fakeStatusReceiver := fakes.FakeStatusReceiver{}

			// init
			ctrl := statussync.NewController(
				&fakeStatusReceiver,
				runID,
				statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(timeutil.NewFakeTicker())),
			)

			// start
			ctrl.Start(context.Background())

			// shutdown
			err := ctrl.Shutdown(context.Background())
			require.NoError(t, err)

			// a straggler event is dropped instead of deadlocking the caller
			ctrl.StageFinished(context.Background(), stage1, pipeline.ConclusionCancelled, time.Now())
		})
	})

	t.Run("syncing", func(t *testing.T) {
		t.Run("before shutdown", func(t *testing.T) {
			t.Run("doesn't sync when queue is empty", func(t *testing.T) {
				fakeStatusReceiver := fakes.FakeStatusReceiver{}

				// init
				ctrl := statussync.NewController(
					&fakeStatusReceiver,
					runID,
					statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(timeutil.NewFakeTicker())),
				)

				// start
				ctrl.Start(context.Background())

				// shutdown
				err := ctrl.Shutdown(context.Background())
				require.NoError(t, err)

				// assert no calls
				assert.Equal(t, 0, fakeStatusReceiver.UpdateStagesCallCount())
			})

			t.Run("syncs when queue is not empty", func(t *testing.T) {
				fakeStatusReceiver := fakes.FakeStatusReceiver{}

				// init
				ctrl := statussync.NewController(
					&fakeStatusReceiver,
					runID,
					statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(timeutil.NewFakeTicker())),
				)

				// start
				ctrl.Start(context.Background())

				ctrl.StageQueued(context.Background(), stage1, 1)

				// shutdown
				err := ctrl.Shutdown(context.Background())
				require.NoError(t, err)

				// assert single call
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount())
			})
		})

		t.Run("on tick", func(t *testing.T) {
			t.Run("syncs when queue is not empty", func(t *testing.T) {
				ticker := timeutil.NewFakeTicker()
				fakeStatusReceiver := fakes.FakeStatusReceiver{}

				eventProcessedChan := make(chan struct{})

				// init
				ctrl := statussync.NewController(
					&fakeStatusReceiver,
					runID,
					statussync.WithHookEventProcessed(eventProcessedChan),
					statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(ticker)),
				)

				// start
				ctrl.Start(context.Background())
				assert.Zero(t, fakeStatusReceiver.UpdateStagesCallCount(), "should be 0 (before sending events)")

				// queue stage and wait for it to be processed
				ctrl.StageQueued(context.Background(), stage1, 1)
				<-eventProcessedChan
				assert.Zero(t, fakeStatusReceiver.UpdateStagesCallCount(), "should be 0 (before tick)")

				// tick twice, 2nd tick MUST be performed after 1st tick guaranteeing that 1st tick already happened
				ticker.Tick()
				ticker.Tick()
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount(), "should be 1 (after tick)")

				// shutdown
				err := ctrl.Shutdown(context.Background())
				require.NoError(t, err)

				// no more syncs
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount(), "should be 1 (after shutdown)")
			})

			t.Run("syncs max 1 time per tick", func(t *testing.T) {
				ticker := timeutil.NewFakeTicker()
				fakeStatusReceiver := fakes.FakeStatusReceiver{}

				eventProcessedChan := make(chan struct{})

				// init
				ctrl := statussync.NewController(
					&fakeStatusReceiver,
					runID,
					statussync.WithHookEventProcessed(eventProcessedChan),
					statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(ticker)),
				)

				// start
				ctrl.Start(context.Background())

				// queue stages
				ctrl.StageQueued(context.Background(), stage1, 1)
				<-eventProcessedChan
				ctrl.StageQueued(context.Background(), stage2, 2)
				<-eventProcessedChan
				ctrl.StageQueued(context.Background(), stage3, 3)
				<-eventProcessedChan

				// tick twice, 2nd tick MUST be performed after 1st tick guaranteeing that 1st tick already happened
				ticker.Tick()
				ticker.Tick()
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount(), "should be 1 (after tick)")

				// shutdown
				err := ctrl.Shutdown(context.Background())
				require.NoError(t, err)

				// no more syncs
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount(), "should be 1 (after shutdown)")
			})

			t.Run("syncs after each tick", func(t *testing.T) {
				ticker := timeutil.NewFakeTicker()
				fakeStatusReceiver := fakes.FakeStatusReceiver{}

				eventProcessedChan := make(chan struct{})

				// init
				ctrl := statussync.NewController(
					&fakeStatusReceiver,
					runID,
					statussync.WithHookEventProcessed(eventProcessedChan),
					statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(ticker)),
				)

				// start
				ctrl.Start(context.Background())

				// queue stage, tick twice and assert
				ctrl.StageQueued(context.Background(), stage1, 1)
				<-eventProcessedChan
				ticker.Tick()
				ticker.Tick()
				assert.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount(), "should be 1 (after tick)")

				// start stage, tick twice and assert
				ctrl.StageStarted(context.Background(), stage1, time.Now())
				<-eventProcessedChan
				ticker.Tick()
				ticker.Tick()
				assert.Equal(t, 2, fakeStatusReceiver.UpdateStagesCallCount(), "should be 2 (after tick)")

				// finish stage, tick twice and assert
				ctrl.StageFinished(context.Background(), stage1, pipeline.ConclusionSuccess, time.Now())
				<-eventProcessedChan
				ticker.Tick()
				ticker.Tick()
				assert.Equal(t, 3, fakeStatusReceiver.UpdateStagesCallCount(), "should be 3 (after tick)")

				// shutdown
				err := ctrl.Shutdown(context.Background())
				require.NoError(t, err)

				// no more syncs
				assert.Equal(t, 3, fakeStatusReceiver.UpdateStagesCallCount(), "should be 3 (after shutdown)")
			})
		})

		t.Run("payload", func(t *testing.T) {
			ticker := timeutil.NewFakeTicker()
			fakeStatusReceiver := fakes.FakeStatusReceiver{}

			eventProcessedChan := make(chan struct{})

			// init
			ctrl := statussync.NewController(
				&fakeStatusReceiver,
				runID,
				statussync.WithHookEventProcessed(eventProcessedChan),
				statussync.WithNewTickerFunc(timeutil.WrapFakeTicker(ticker)),
			)

			// start
			ctrl.Start(context.Background())

			// queue, start and finish a stage
			startedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			finishedAt := startedAt.Add(3 * time.Second)

			ctrl.StageQueued(context.Background(), stage1, 1)
			<-eventProcessedChan
			ctrl.StageStarted(context.Background(), stage1, startedAt)
			<-eventProcessedChan
			ctrl.StageFinished(context.Background(), stage1, pipeline.ConclusionSuccess, finishedAt)
			<-eventProcessedChan

			ticker.Tick()
			ticker.Tick()
			require.Equal(t, 1, fakeStatusReceiver.UpdateStagesCallCount())

			_, changeID, gotRunID, stages := fakeStatusReceiver.UpdateStagesArgsForCall(0)
			assert.Equal(t, 1, changeID)
			assert.Equal(t, runID, gotRunID)

			require.Len(t, stages, 1)
			assert.Equal(t, "stage1", stages[0].StageID)
			assert.Equal(t, 1, stages[0].Number)
			assert.Equal(t, "Stage 1", stages[0].Name)
			assert.Equal(t, "blocking", stages[0].Class)
			assert.Equal(t, statushook.StatusCompleted, stages[0].Status)
			assert.Equal(t, "success", stages[0].Conclusion)
			require.NotNil(t, stages[0].StartedAt)
			assert.Equal(t, startedAt, *stages[0].StartedAt)
			require.NotNil(t, stages[0].CompletedAt)
			assert.Equal(t, finishedAt, *stages[0].CompletedAt)

			// shutdown
			err := ctrl.Shutdown(context.Background())
			require.NoError(t, err)
		})
	})
}
