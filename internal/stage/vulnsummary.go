package stage

import (
	"context"
	"fmt"
	"io"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/report"
)

var _ pipeline.Stage = (*VulnSummary)(nil)

type VulnSummaryOptions struct {
	// Findings at or above this count fail the stage. Zero means any
	// critical finding degrades the outcome.
	MaxCritical int `yaml:"maxCritical"`
}

// VulnSummary parses the vulnerability scan report and degrades the outcome
// when the critical finding count exceeds the threshold. A run without a
// scan report has nothing to summarize and skips cleanly.
type VulnSummary struct {
	base
	artifacts *artifact.Store
	opts      VulnSummaryOptions
}

func NewVulnSummary(params Params, artifacts *artifact.Store, opts VulnSummaryOptions) *VulnSummary {
	return &VulnSummary{
		base:      newBase(params),
		artifacts: artifacts,
		opts:      opts,
	}
}

func (s *VulnSummary) Run(ctx context.Context, logWriter io.Writer) error {
	scan, ok := s.artifacts.Get(TrivyJSONArtifact)
	if !ok {
		return fmt.Errorf("no scan report found: %w", pipeline.ErrSkip)
	}

	summary, err := report.ParseTrivyJSON(scan.Data)
	if err != nil {
		return err
	}

	fmt.Fprintf(logWriter, "vulnerability summary: %s\n", summary)

	if critical := summary.Count("CRITICAL"); critical > s.opts.MaxCritical {
		return fmt.Errorf("%d critical findings exceed the threshold of %d", critical, s.opts.MaxCritical)
	}

	return nil
}
