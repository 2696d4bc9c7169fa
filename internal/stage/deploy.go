package stage

import (
	"context"
	"fmt"
	"io"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/compose"
)

var _ pipeline.Stage = (*Deploy)(nil)

type ComposeClient interface {
	Down(ctx context.Context, logWriter io.Writer, opts compose.Options) error
	Up(ctx context.Context, logWriter io.Writer, opts compose.Options, services ...string) error
}

type DeployOptions struct {
	File     string   `yaml:"file"`
	Project  string   `yaml:"project"`
	Services []string `yaml:"services"`
}

// Deploy tears the compose services down and brings them back up with the
// freshly pushed image.
type Deploy struct {
	base
	client ComposeClient
	opts   DeployOptions
}

func NewDeploy(params Params, client ComposeClient, opts DeployOptions) *Deploy {
	return &Deploy{
		base:   newBase(params),
		client: client,
		opts:   opts,
	}
}

func (s *Deploy) Run(ctx context.Context, logWriter io.Writer) error {
	composeOpts := compose.Options{
		File:    s.opts.File,
		Project: s.opts.Project,
		WorkDir: s.workDir,
		Env:     s.envList(),
	}

	if err := s.client.Down(ctx, logWriter, composeOpts); err != nil {
		return fmt.Errorf("compose down: %w", err)
	}

	if err := s.client.Up(ctx, logWriter, composeOpts, s.opts.Services...); err != nil {
		return fmt.Errorf("compose up: %w", err)
	}

	return nil
}
