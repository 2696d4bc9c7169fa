// Package ghstatus reports run progress as GitHub commit statuses, so the
// checked-out commit shows a pending marker while the pipeline runs and the
// final outcome once it ends.
package ghstatus

import (
	"context"
	"fmt"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/google/go-github/v69/github"
	"go.opentelemetry.io/otel/trace"
)

type Repository struct {
	client  *github.Client
	tracer  trace.Tracer
	owner   string
	repo    string
	context string
}

func New(traceProvider trace.TracerProvider, client *github.Client, owner, repo, statusContext string) *Repository {
	return &Repository{
		client:  client,
		tracer:  traceProvider.Tracer("github.com/conveyor-ci/conveyor/internal/repository/ghstatus"),
		owner:   owner,
		repo:    repo,
		context: statusContext,
	}
}

// SetPending marks the commit as having a run in progress.
func (r *Repository) SetPending(ctx context.Context, sha, description string) error {
	return r.setStatus(ctx, sha, "pending", description)
}

// SetOutcome maps the final run outcome to a commit status state. UNSTABLE
// runs report success; the description carries the distinction.
func (r *Repository) SetOutcome(ctx context.Context, sha string, outcome pipeline.Outcome) error {
	var state string
	switch outcome {
	case pipeline.OutcomeSuccess, pipeline.OutcomeUnstable:
		state = "success"
	case pipeline.OutcomeFailure:
		state = "failure"
	default:
		state = "error"
	}

	description := fmt.Sprintf("pipeline finished: %s", outcome)

	return r.setStatus(ctx, sha, state, description)
}

func (r *Repository) setStatus(ctx context.Context, sha, state, description string) error {
	ctx, span := r.tracer.Start(ctx, "setStatus")
	defer span.End()

	status := github.RepoStatus{
		State:       github.Ptr(state),
		Description: github.Ptr(description),
		Context:     github.Ptr(r.context),
	}

	if _, _, err := r.client.Repositories.CreateStatus(ctx, r.owner, r.repo, sha, &status); err != nil {
		return fmt.Errorf("ghstatus.setStatus create status: %w", err)
	}

	return nil
}
