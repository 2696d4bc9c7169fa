// Package docker wraps the docker CLI for image build, tag and push.
package docker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/docker"
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

type BuildOptions struct {
	ContextDir string
	Dockerfile string
	Tag        string
	BuildArgs  map[string]string
}

func (c *Client) Build(ctx context.Context, logWriter io.Writer, opts BuildOptions) error {
	ctx, span := c.tracer.Start(ctx, "Build")
	defer span.End()

	args := []string{"build"}

	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}

	if opts.Dockerfile != "" {
		args = append(args, "-f", opts.Dockerfile)
	}

	for key, value := range opts.BuildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", key, value))
	}

	contextDir := opts.ContextDir
	if contextDir == "" {
		contextDir = "."
	}

	args = append(args, contextDir)

	return tool.Run(ctx, tool.Invocation{Binary: c.binary, Args: args}, logWriter)
}

func (c *Client) Tag(ctx context.Context, logWriter io.Writer, source, target string) error {
	ctx, span := c.tracer.Start(ctx, "Tag")
	defer span.End()

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   []string{"tag", source, target},
	}, logWriter)
}

func (c *Client) Push(ctx context.Context, logWriter io.Writer, image string) error {
	ctx, span := c.tracer.Start(ctx, "Push")
	defer span.End()

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   []string{"push", image},
	}, logWriter)
}

// Login authenticates against a registry. The password goes over stdin so it
// never shows up in the process list.
func (c *Client) Login(ctx context.Context, logWriter io.Writer, registry, username, password string) error {
	ctx, span := c.tracer.Start(ctx, "Login")
	defer span.End()

	args := []string{"login", "-u", username, "--password-stdin"}
	if registry != "" {
		args = append(args, registry)
	}

	return tool.Run(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   args,
		Stdin:  strings.NewReader(password),
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
