package stage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/trivy"
)

const (
	// artifact names shared with the vulnsummary stage
	TrivyJSONArtifact = "trivy/report.json"
	TrivyHTMLArtifact = "trivy/report.html"
)

var _ pipeline.Stage = (*VulnScan)(nil)

type TrivyClient interface {
	ScanImage(ctx context.Context, logWriter io.Writer, opts trivy.ScanOptions) error
}

type VulnScanOptions struct {
	Image        string   `yaml:"image"`
	Severities   []string `yaml:"severities"`
	HTMLTemplate string   `yaml:"htmlTemplate"`
}

// VulnScan scans the built image and registers the JSON and HTML reports as
// run artifacts. The scan itself never fails the run on findings; the
// vulnsummary stage applies the threshold.
type VulnScan struct {
	base
	client    TrivyClient
	artifacts *artifact.Store
	opts      VulnScanOptions
}

func NewVulnScan(params Params, client TrivyClient, artifacts *artifact.Store, opts VulnScanOptions) *VulnScan {
	if opts.HTMLTemplate == "" {
		opts.HTMLTemplate = "@contrib/html.tpl"
	}

	return &VulnScan{
		base:      newBase(params),
		client:    client,
		artifacts: artifacts,
		opts:      opts,
	}
}

func (s *VulnScan) Run(ctx context.Context, logWriter io.Writer) error {
	scratch, err := os.MkdirTemp("", "conveyor-trivy-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	jsonPath := filepath.Join(scratch, "report.json")
	htmlPath := filepath.Join(scratch, "report.html")

	if err := s.client.ScanImage(ctx, logWriter, trivy.ScanOptions{
		Image:      s.opts.Image,
		Severities: s.opts.Severities,
		Format:     "json",
		Output:     jsonPath,
	}); err != nil {
		return fmt.Errorf("scan image: %w", err)
	}

	if err := s.client.ScanImage(ctx, logWriter, trivy.ScanOptions{
		Image:      s.opts.Image,
		Severities: s.opts.Severities,
		Format:     "template",
		Template:   s.opts.HTMLTemplate,
		Output:     htmlPath,
	}); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	if err := s.collect(jsonPath, TrivyJSONArtifact, "application/json"); err != nil {
		return err
	}

	return s.collect(htmlPath, TrivyHTMLArtifact, "text/html")
}

func (s *VulnScan) collect(path, name, contentType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s report: %w", name, err)
	}

	s.artifacts.Add(name, contentType, data)

	return nil
}
