// Package sonar wraps sonar-scanner for static analysis.
package sonar

import (
	"context"
	"fmt"
	"io"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/sonar"
)

type Client struct {
	binary string
	tracer trace.Tracer
}

func New(options ...func(*Client)) *Client {
	client := Client{
		binary: "sonar-scanner",
		tracer: defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&client)
	}

	return &client
}

type ScanOptions struct {
	ProjectKey string
	HostURL    string
	Token      string
	Sources    string
	WorkDir    string

	// Extra -D properties passed through verbatim, e.g. the severity
	// threshold for the quality gate.
	Properties map[string]string
}

func (c *Client) Scan(ctx context.Context, logWriter io.Writer, opts ScanOptions) error {
	ctx, span := c.tracer.Start(ctx, "Scan")
	defer span.End()

	args := make([]string, 0, 8)

	if opts.ProjectKey != "" {
		args = append(args, fmt.Sprintf("-Dsonar.projectKey=%s", opts.ProjectKey))
	}

	if opts.HostURL != "" {
		args = append(args, fmt.Sprintf("-Dsonar.host.url=%s", opts.HostURL))
	}

	if opts.Sources != "" {
		args = append(args, fmt.Sprintf("-Dsonar.sources=%s", opts.Sources))
	}

	for key, value := range opts.Properties {
		args = append(args, fmt.Sprintf("-D%s=%s", key, value))
	}

	// token via env, not argv
	env := []string(nil)
	if opts.Token != "" {
		env = append(env, fmt.Sprintf("SONAR_TOKEN=%s", opts.Token))
	}

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   args,
		Dir:    opts.WorkDir,
		Env:    env,
	}, logWriter)
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
