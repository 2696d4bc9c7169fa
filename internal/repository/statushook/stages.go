package statushook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type stageUpdatesRequest struct {
	ChangeID int           `json:"change_order"`
	RunID    string        `json:"run_id"`
	Stages   []StageUpdate `json:"stages"`
}

// UpdateStages posts a batch of stage updates. ChangeID increases with
// every batch so the receiver can discard updates arriving out of order.
func (r *Repository) UpdateStages(ctx context.Context, changeID int, runID string, stages []StageUpdate) error {
	ctx, span := r.tracer.Start(ctx, "UpdateStages")
	defer span.End()

	requestBody := stageUpdatesRequest{
		ChangeID: changeID,
		RunID:    runID,
		Stages:   stages,
	}

	encodedBody, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("encode JSON body: %w", err)
	}

	path := fmt.Sprintf("/api/v1/runs/%s/stages", url.PathEscape(runID))
	response, err := r.doRequest(ctx, "POST", path, bytes.NewReader(encodedBody))
	if err != nil {
		return fmt.Errorf("do HTTP request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	return nil
}

type completeRunRequest struct {
	RunID      string    `json:"run_id"`
	Outcome    string    `json:"outcome"`
	FinishedAt time.Time `json:"finished_at"`
}

// CompleteRun reports the final outcome once the pipeline has finished.
func (r *Repository) CompleteRun(ctx context.Context, runID, outcome string, finishedAt time.Time) error {
	ctx, span := r.tracer.Start(ctx, "CompleteRun")
	defer span.End()

	requestBody := completeRunRequest{
		RunID:      runID,
		Outcome:    outcome,
		FinishedAt: finishedAt,
	}

	encodedBody, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("encode JSON body: %w", err)
	}

	path := fmt.Sprintf("/api/v1/runs/%s/complete", url.PathEscape(runID))
	response, err := r.doRequest(ctx, "POST", path, bytes.NewReader(encodedBody))
	if err != nil {
		return fmt.Errorf("do HTTP request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	return nil
}
