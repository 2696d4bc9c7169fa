// Package compose wraps `docker compose` for service deployment.
package compose

import (
	"context"
	"io"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/compose"
)

type Client struct {
	binary string
	tracer trace.Tracer
}

func New(options ...func(*Client)) *Client {
	client := Client{
		binary: "docker",
		tracer: defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&client)
	}

	return &client
}

type Options struct {
	File    string
	Project string
	WorkDir string
	Env     []string
}

func (c *Client) Down(ctx context.Context, logWriter io.Writer, opts Options) error {
	ctx, span := c.tracer.Start(ctx, "Down")
	defer span.End()

	args := c.baseArgs(opts)
	args = append(args, "down", "--remove-orphans")

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   args,
		Dir:    opts.WorkDir,
		Env:    opts.Env,
	}, logWriter)
}

func (c *Client) Up(ctx context.Context, logWriter io.Writer, opts Options, services ...string) error {
	ctx, span := c.tracer.Start(ctx, "Up")
	defer span.End()

	args := c.baseArgs(opts)
	args = append(args, "up", "--detach")
	args = append(args, services...)

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   args,
		Dir:    opts.WorkDir,
		Env:    opts.Env,
	}, logWriter)
}

func (c *Client) baseArgs(opts Options) []string {
	args := []string{"compose"}

	if opts.File != "" {
		args = append(args, "-f", opts.File)
	}

	if opts.Project != "" {
		args = append(args, "-p", opts.Project)
	}

	return args
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
