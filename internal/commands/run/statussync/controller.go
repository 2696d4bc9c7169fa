// Package statussync batches stage lifecycle updates and delivers them to a
// status receiver on a fixed interval, with a final flush on shutdown.
package statussync

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/repository/statushook"
	"github.com/conveyor-ci/conveyor/internal/util/timeutil"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6@v6.11.2 -o fakes . StatusReceiver
type StatusReceiver interface {
	UpdateStages(ctx context.Context, changeID int, runID string, stages []statushook.StageUpdate) error
}

var _ pipeline.Observer = (*Controller)(nil)

type event any

type (
	eventAddStage struct {
		ID    string
		Order int
		Name  string
		Class pipeline.Class
	}

	eventStageStarted struct {
		ID        string
		StartedAt time.Time
	}

	eventStageFinished struct {
		ID          string
		Conclusion  pipeline.Conclusion
		CompletedAt time.Time
	}
)

type Controller struct {
	statusClient StatusReceiver
	runID        string
	nextChangeID int
	mu           sync.Mutex
	wg           sync.WaitGroup
	shutdown     context.CancelFunc
	eventsChan   chan event
	eventsDone   chan struct{}
	state        []statushook.StageUpdate
	pendingSync  map[string]struct{}
	newTicker    timeutil.NewTickerFunc

	hookEventProcessed chan<- struct{}
}

func NewController(
	statusClient StatusReceiver,
	runID string,
	options ...func(*Controller),
) *Controller {
	ctrl := Controller{
		statusClient:       statusClient,
		runID:              runID,
		mu:                 sync.Mutex{},
		wg:                 sync.WaitGroup{},
		state:              make([]statushook.StageUpdate, 0),
		eventsChan:         make(chan event),
		eventsDone:         make(chan struct{}),
		pendingSync:        make(map[string]struct{}),
		shutdown:           nil,
		newTicker:          timeutil.Generic(timeutil.NewTicker),
		hookEventProcessed: nil,
	}

	for _, apply := range options {
		apply(&ctrl)
	}

	return &ctrl
}

func (c *Controller) StageQueued(_ context.Context, stage pipeline.Stage, order int) {
	c.send(eventAddStage{
		ID:    stage.ID(),
		Order: order,
		Name:  stage.Name(),
		Class: stage.Class(),
	})
}

func (c *Controller) StageStarted(_ context.Context, stage pipeline.Stage, startedAt time.Time) {
	c.send(eventStageStarted{
		ID:        stage.ID(),
		StartedAt: startedAt,
	})
}

func (c *Controller) StageFinished(_ context.Context, stage pipeline.Stage, conclusion pipeline.Conclusion, finishedAt time.Time) {
	c.send(eventStageFinished{
		ID:          stage.ID(),
		Conclusion:  conclusion,
		CompletedAt: finishedAt,
	})
}

// send must never block the runner: the runner keeps reporting skipped
// stages after an abort, so a stopped events worker drops the event rather
// than deadlocking the caller.
func (c *Controller) send(evt event) {
	select {
	case c.eventsChan <- evt:
	case <-c.eventsDone:
	}
}

func (c *Controller) Shutdown(_ context.Context) error {
	// notify goroutines time to exit
	c.shutdown()

	// wait for goroutine to finish
	c.wg.Wait()

	return nil
}

func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// the runner reports the interrupted stage and every skipped one after
	// an abort, so the events worker must outlive the run context; both
	// workers stop only from Shutdown

	eventsCtx, eventCancel := context.WithCancel(context.WithoutCancel(ctx))

	// sync worker must exit after the events worker to ensure all events have been synced
	// therefore sync worker gets a clean context which is cancelled when worker exits

	syncCtx, syncCancel := context.WithCancel(context.WithoutCancel(ctx))

	// for Shutdown method
	c.shutdown = eventCancel

	c.wg.Add(1)
	go c.workerEvents(eventsCtx, syncCancel)

	c.wg.Add(1)
	go c.workerSync(syncCtx)
}

func (c *Controller) doSync(ctx context.Context) error {
	c.mu.Lock()
	if len(c.pendingSync) == 0 {
		c.mu.Unlock()
		return nil
	}

	// collect ids to sync
	ids := make([]string, 0, len(c.pendingSync))
	for id := range c.pendingSync {
		ids = append(ids, id)
	}

	// clear list
	c.pendingSync = make(map[string]struct{})

	// collect stages to sync
	stages := make([]statushook.StageUpdate, 0, len(ids))
	for _, id := range ids {
		index := slices.IndexFunc(c.state, stageWithID(id))
		if index == -1 {
			continue
		}

		stages = append(stages, c.state[index])
	}

	c.nextChangeID++
	nextChangeID := c.nextChangeID
	c.mu.Unlock()

	// TODO: add backoff in case of failure
	if err := c.statusClient.UpdateStages(ctx, nextChangeID, c.runID, stages); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		// mark all items as needing sync
		for _, id := range ids {
			c.pendingSync[id] = struct{}{}
		}

		return fmt.Errorf("update stages: %w", err)
	}

	return nil
}

func (c *Controller) handleEvent(evt event) {
	// for testing
	if c.hookEventProcessed != nil {
		defer func() {
			c.hookEventProcessed <- struct{}{}
		}()
	}

	switch evt := evt.(type) {
	case eventAddStage:
		stage := statushook.StageUpdate{
			StageID: evt.ID,
			Number:  evt.Order,
			Name:    evt.Name,
			Class:   string(evt.Class),
			Status:  statushook.StatusQueued,
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		c.state = append(c.state, stage)
		c.pendingSync[evt.ID] = struct{}{}

	case eventStageStarted:
		c.updateStage(evt.ID, func(stage statushook.StageUpdate) statushook.StageUpdate {
			stage.Status = statushook.StatusInProgress
			stage.StartedAt = &evt.StartedAt

			return stage
		})

	case eventStageFinished:
		c.updateStage(evt.ID, func(stage statushook.StageUpdate) statushook.StageUpdate {
			stage.Status = statushook.StatusCompleted
			stage.Conclusion = string(evt.Conclusion)
			stage.CompletedAt = &evt.CompletedAt

			return stage
		})
	}
}

func (c *Controller) updateStage(id string, callback func(stage statushook.StageUpdate) statushook.StageUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := slices.IndexFunc(c.state, stageWithID(id))
	if index == -1 {
		return
	}

	c.state[index] = callback(c.state[index])
	c.pendingSync[id] = struct{}{}
}

func (c *Controller) workerEvents(ctx context.Context, done func()) {
	defer c.wg.Done()
	defer done()
	defer close(c.eventsDone)

	for {
		select {
		case <-ctx.Done():
			return

		case evt := <-c.eventsChan:
			c.handleEvent(evt)
		}
	}
}

func (c *Controller) workerSync(ctx context.Context) {
	defer c.wg.Done()

	ticker := c.newTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// do one more sync before exiting
			// clean ctx, otherwise request will fail
			ctx := context.WithoutCancel(ctx)

			// TODO: handle error
			_ = c.doSync(ctx)

			return

		case <-ticker.Chan():
			// TODO: handle error
			_ = c.doSync(ctx)
		}
	}
}

func stageWithID(id string) func(statushook.StageUpdate) bool {
	return func(stage statushook.StageUpdate) bool {
		return stage.StageID == id
	}
}

func WithHookEventProcessed(ch chan<- struct{}) func(*Controller) {
	return func(c *Controller) {
		c.hookEventProcessed = ch
	}
}

func WithNewTickerFunc[T timeutil.Ticker](newTicker func(d time.Duration) T) func(*Controller) {
	return func(c *Controller) {
		c.newTicker = timeutil.Generic(newTicker)
	}
}
