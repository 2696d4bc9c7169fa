package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/zap"
)

const (
	ZAPJSONArtifact = "zap/report.json"
	ZAPHTMLArtifact = "zap/report.html"
)

var _ pipeline.Stage = (*DAST)(nil)

type ZAPClient interface {
	Baseline(ctx context.Context, logWriter io.Writer, opts zap.BaselineOptions) error
}

type DASTOptions struct {
	TargetURL string `yaml:"targetUrl"`
}

// DAST runs the dynamic baseline scan against the deployed target. The
// scanner exits non-zero when it raises warnings; reports are registered as
// artifacts either way.
type DAST struct {
	base
	client    ZAPClient
	artifacts *artifact.Store
	opts      DASTOptions
}

func NewDAST(params Params, client ZAPClient, artifacts *artifact.Store, opts DASTOptions) *DAST {
	return &DAST{
		base:      newBase(params),
		client:    client,
		artifacts: artifacts,
		opts:      opts,
	}
}

func (s *DAST) Run(ctx context.Context, logWriter io.Writer) error {
	scratch, err := os.MkdirTemp("", "conveyor-zap-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	scanErr := s.client.Baseline(ctx, logWriter, zap.BaselineOptions{
		TargetURL:  s.opts.TargetURL,
		JSONReport: "report.json",
		HTMLReport: "report.html",
		WorkDir:    scratch,
	})

	// collect whatever the scanner produced before deciding on the error
	s.collect(filepath.Join(scratch, "report.json"), ZAPJSONArtifact, "application/json")
	s.collect(filepath.Join(scratch, "report.html"), ZAPHTMLArtifact, "text/html")

	return scanErr
}

func (s *DAST) collect(path, name, contentType string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	s.artifacts.Add(name, contentType, data)
}
