// Package journal records the stage timeline of a run and captures each
// stage's log output, registering the captured logs as run artifacts.
package journal

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

var (
	_ pipeline.Observer = (*Journal)(nil)
	_ pipeline.LogSink  = (*Journal)(nil)
)

// Record is a single stage's entry in the run timeline.
type Record struct {
	StageID    string
	StageName  string
	Class      pipeline.Class
	Order      int
	Conclusion pipeline.Conclusion
	StartedAt  time.Time
	FinishedAt time.Time
}

type Journal struct {
	store   *artifact.Store
	console io.Writer

	mu      sync.Mutex
	records map[string]*Record
	order   []string
}

func NewJournal(store *artifact.Store, options ...func(*Journal)) *Journal {
	journal := Journal{
		store:   store,
		console: io.Discard,
		mu:      sync.Mutex{},
		records: make(map[string]*Record),
		order:   make([]string, 0),
	}

	for _, option := range options {
		option(&journal)
	}

	return &journal
}

func (j *Journal) StageQueued(_ context.Context, stage pipeline.Stage, order int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records[stage.ID()] = &Record{
		StageID:   stage.ID(),
		StageName: stage.Name(),
		Class:     stage.Class(),
		Order:     order,
	}

	j.order = append(j.order, stage.ID())
}

func (j *Journal) StageStarted(_ context.Context, stage pipeline.Stage, startedAt time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if record, ok := j.records[stage.ID()]; ok {
		record.StartedAt = startedAt
	}

	fmt.Fprintf(j.console, "\n--- %s\n", stage.Name())
}

func (j *Journal) StageFinished(_ context.Context, stage pipeline.Stage, conclusion pipeline.Conclusion, finishedAt time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	record, ok := j.records[stage.ID()]
	if !ok {
		return
	}

	record.Conclusion = conclusion
	record.FinishedAt = finishedAt
}

// StageWriter returns the writer a stage's tools write to. Output is shown
// on the console as it arrives and captured for artifact publication.
func (j *Journal) StageWriter(_ context.Context, stageID string) io.WriteCloser {
	return newStageLogWriter(j, stageID)
}

// Records returns timeline entries in queue order.
func (j *Journal) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	records := make([]Record, 0, len(j.order))
	for _, stageID := range j.order {
		records = append(records, *j.records[stageID])
	}

	return records
}

// WithConsoleWriter mirrors stage output to the given writer, typically
// os.Stdout.
func WithConsoleWriter(writer io.Writer) func(*Journal) {
	return func(j *Journal) {
		j.console = writer
	}
}
