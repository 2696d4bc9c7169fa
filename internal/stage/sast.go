package stage

import (
	"context"
	"io"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/sonar"
)

var _ pipeline.Stage = (*SAST)(nil)

type SonarClient interface {
	Scan(ctx context.Context, logWriter io.Writer, opts sonar.ScanOptions) error
}

type SASTOptions struct {
	ProjectKey string            `yaml:"projectKey"`
	HostURL    string            `yaml:"hostUrl"`
	Token      string            `yaml:"token"`
	Sources    string            `yaml:"sources"`
	Properties map[string]string `yaml:"properties"`
}

// SAST runs the static analysis scanner against the checked out sources.
// The scanner's quality gate failing surfaces as a non-zero exit, which the
// advisory class maps to an unstable outcome.
type SAST struct {
	base
	client SonarClient
	opts   SASTOptions
}

func NewSAST(params Params, client SonarClient, opts SASTOptions) *SAST {
	return &SAST{
		base:   newBase(params),
		client: client,
		opts:   opts,
	}
}

func (s *SAST) Run(ctx context.Context, logWriter io.Writer) error {
	return s.client.Scan(ctx, logWriter, sonar.ScanOptions{
		ProjectKey: s.opts.ProjectKey,
		HostURL:    s.opts.HostURL,
		Token:      s.opts.Token,
		Sources:    s.opts.Sources,
		WorkDir:    s.workDir,
		Properties: s.opts.Properties,
	})
}
