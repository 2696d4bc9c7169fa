package journal_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/commands/run/journal"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
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

func TestJournal_Records(t *testing.T) {
	ctx := context.Background()

	// init
	store := artifact.NewStore()
	j := journal.NewJournal(store)

	checkout := &fakeStage{id: "checkout", name: "Checkout", class: pipeline.ClassBlocking}
	scan := &fakeStage{id: "scan", name: "Scan", class: pipeline.ClassAdvisory}

	startedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(5 * time.Second)

	// queue both, run only the first
	j.StageQueued(ctx, checkout, 0)
	j.StageQueued(ctx, scan, 1)
	j.StageStarted(ctx, checkout, startedAt)
	j.StageFinished(ctx, checkout, pipeline.ConclusionSuccess, finishedAt)
	j.StageFinished(ctx, scan, pipeline.ConclusionSkipped, finishedAt)

	records := j.Records()
	require.Len(t, records, 2)

	assert.Equal(t, "checkout", records[0].StageID)
	assert.Equal(t, "Checkout", records[0].StageName)
	assert.Equal(t, pipeline.ClassBlocking, records[0].Class)
	assert.Equal(t, 0, records[0].Order)
	assert.Equal(t, pipeline.ConclusionSuccess, records[0].Conclusion)
	assert.Equal(t, startedAt, records[0].StartedAt)
	assert.Equal(t, finishedAt, records[0].FinishedAt)

	assert.Equal(t, "scan", records[1].StageID)
	assert.Equal(t, pipeline.ConclusionSkipped, records[1].Conclusion)
	assert.True(t, records[1].StartedAt.IsZero())
}

func TestJournal_StageWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("tees output and registers log artifact", func(t *testing.T) {
		store := artifact.NewStore()
		console := bytes.NewBuffer(nil)
		j := journal.NewJournal(store, journal.WithConsoleWriter(console))

		writer := j.StageWriter(ctx, "build")

		_, err := writer.Write([]byte("step 1\n"))
		require.NoError(t, err)

		_, err = writer.Write([]byte("step 2\n"))
		require.NoError(t, err)

		require.NoError(t, writer.Close())

		assert.Contains(t, console.String(), "step 1\nstep 2\n")

		captured, ok := store.Get("logs/build.log")
		require.True(t, ok)
		assert.Equal(t, "text/plain; charset=utf-8", captured.ContentType)
		assert.Equal(t, []byte("step 1\nstep 2\n"), captured.Data)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := artifact.NewStore()
		j := journal.NewJournal(store)

		writer := j.StageWriter(ctx, "build")

		_, err := writer.Write([]byte("output\n"))
		require.NoError(t, err)

		require.NoError(t, writer.Close())
		require.NoError(t, writer.Close())

		assert.Equal(t, 1, store.Len())
	})

	t.Run("no output, no artifact", func(t *testing.T) {
		store := artifact.NewStore()
		j := journal.NewJournal(store)

		writer := j.StageWriter(ctx, "skipped")
		require.NoError(t, writer.Close())

		assert.Equal(t, 0, store.Len())
	})
}
