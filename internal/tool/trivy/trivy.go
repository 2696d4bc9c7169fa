// Package trivy wraps the trivy CLI for image vulnerability scans.
package trivy

import (
	"context"
	"io"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/trivy"
)

type Client struct {
	binary string
	tracer trace.Tracer
}

func New(options ...func(*Client)) *Client {
	client := Client{
		binary: "trivy",
		tracer: defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&client)
	}

	return &client
}

type ScanOptions struct {
	Image      string
	Severities []string
	Format     string // json, table, template
	Template   string // template ref when Format is "template"
	Output     string // report file path, empty for the log writer
}

// ScanImage runs a vulnerability scan against a built image. The exit code
// is left at trivy's default (zero even with findings); the summarization
// stage applies the severity threshold.
func (c *Client) ScanImage(ctx context.Context, logWriter io.Writer, opts ScanOptions) error {
	ctx, span := c.tracer.Start(ctx, "ScanImage")
	defer span.End()

	args := []string{"image"}

	if len(opts.Severities) > 0 {
		args = append(args, "--severity", strings.Join(opts.Severities, ","))
	}

	if opts.Format != "" {
		args = append(args, "--format", opts.Format)
	}

	if opts.Template != "" {
		args = append(args, "--template", opts.Template)
	}

	if opts.Output != "" {
		args = append(args, "--output", opts.Output)
	}

	args = append(args, opts.Image)

	return tool.Run(ctx, tool.Invocation{Binary: c.binary, Args: args}, logWriter)
}

func WithBinary(binary string) func(*Client) {
	return func(c *Client) {
		c.binary = binary
	}
}

func WithTracerProvider(tp trace.TracerProvider) func(*Client) {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}
