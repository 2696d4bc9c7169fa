// Package zap wraps the OWASP ZAP baseline scanner for dynamic analysis.
package zap

import (
	"context"
	"io"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/zap"
)

type Client struct {
	binary string
	tracer trace.Tracer
}

func New(options ...func(*Client)) *Client {
	client := Client{
		binary: "zap-baseline.py",
		tracer: defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&client)
	}

	return &client
}

type BaselineOptions struct {
	TargetURL  string
	JSONReport string
	HTMLReport string
	WorkDir    string
}

// Baseline runs a passive baseline scan against the target. ZAP exits
// non-zero when it raises warnings, which the advisory dast stage maps to an
// unstable outcome.
func (c *Client) Baseline(ctx context.Context, logWriter io.Writer, opts BaselineOptions) error {
	ctx, span := c.tracer.Start(ctx, "Baseline")
	defer span.End()

	args := []string{"-t", opts.TargetURL}

	if opts.JSONReport != "" {
		args = append(args, "-J", opts.JSONReport)
	}

	if opts.HTMLReport != "" {
		args = append(args, "-r", opts.HTMLReport)
	}

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   args,
		Dir:    opts.WorkDir,
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
