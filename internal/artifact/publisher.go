package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/artifact"

	manifestName = "manifest.json"
)

// Uploader pushes a published artifact to a remote artifact server.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) error
}

// Publisher writes every stored artifact to the reports directory and,
// when configured, mirrors it to a remote server. Publication is
// deterministic, so running it twice yields the same published set.
type Publisher struct {
	store    *Store
	dir      string
	uploader Uploader
	tracer   trace.Tracer
}

func NewPublisher(store *Store, dir string, options ...func(*Publisher)) *Publisher {
	publisher := Publisher{
		store:    store,
		dir:      dir,
		uploader: nil,
		tracer:   defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&publisher)
	}

	return &publisher
}

type manifestEntry struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

type manifest struct {
	Outcome   pipeline.Outcome `json:"outcome"`
	Artifacts []manifestEntry  `json:"artifacts"`
}

// Finalize implements pipeline.Finalizer.
func (p *Publisher) Finalize(ctx context.Context, outcome pipeline.Outcome) error {
	ctx, span := p.tracer.Start(ctx, "Finalize")
	defer span.End()

	logger := zerolog.Ctx(ctx)

	artifacts := p.store.List()

	entries := make([]manifestEntry, 0, len(artifacts))
	for _, artifact := range artifacts {
		if err := p.writeLocal(artifact); err != nil {
			return err
		}

		entries = append(entries, manifestEntry{
			Name:        artifact.Name,
			ContentType: artifact.ContentType,
			Size:        len(artifact.Data),
		})
	}

	if err := p.writeManifest(outcome, entries); err != nil {
		return err
	}

	logger.Info().
		Int("artifact_count", len(artifacts)).
		Str("dir", p.dir).
		Msg("published artifacts")

	if p.uploader == nil {
		return nil
	}

	for _, artifact := range artifacts {
		if err := p.uploader.Upload(ctx, artifact.Name, artifact.ContentType, artifact.Data); err != nil {
			return fmt.Errorf("upload artifact %q: %w", artifact.Name, err)
		}
	}

	return nil
}

func (p *Publisher) writeLocal(artifact Artifact) error {
	path := filepath.Join(p.dir, filepath.FromSlash(artifact.Name))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write artifact %q: %w", artifact.Name, err)
	}

	return nil
}

func (p *Publisher) writeManifest(outcome pipeline.Outcome, entries []manifestEntry) error {
	data, err := json.MarshalIndent(manifest{Outcome: outcome, Artifacts: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact manifest: %w", err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(p.dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("write artifact manifest: %w", err)
	}

	return nil
}

func WithUploader(uploader Uploader) func(*Publisher) {
	return func(p *Publisher) {
		p.uploader = uploader
	}
}

func WithTracerProvider(tp trace.TracerProvider) func(*Publisher) {
	return func(p *Publisher) {
		p.tracer = tp.Tracer(tracerName)
	}
}
