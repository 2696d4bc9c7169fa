// Package git wraps the git CLI for source checkout.
package git

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/tool"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/conveyor-ci/conveyor/internal/tool/git"
)

type Client struct {
	binary string
	tracer trace.Tracer
}

func New(options ...func(*Client)) *Client {
	client := Client{
		binary: "git",
		tracer: defaults.TracerProvider.Tracer(tracerName),
	}

	for _, apply := range options {
		apply(&client)
	}

	return &client
}

type CheckoutOptions struct {
	RepoURL string
	Ref     string
	Dir     string
}

// Checkout brings opts.Dir to opts.Ref, cloning first when the directory is
// not a repository yet.
func (c *Client) Checkout(ctx context.Context, logWriter io.Writer, opts CheckoutOptions) error {
	ctx, span := c.tracer.Start(ctx, "Checkout")
	defer span.End()

	if _, err := os.Stat(filepath.Join(opts.Dir, ".git")); err != nil {
		invocation := tool.Invocation{
			Binary: c.binary,
			Args:   []string{"clone", "--no-checkout", opts.RepoURL, opts.Dir},
		}

		if err := tool.Run(ctx, invocation, logWriter); err != nil {
			return err
		}
	} else {
		invocation := tool.Invocation{
			Binary: c.binary,
			Args:   []string{"-C", opts.Dir, "fetch", "--tags", "origin"},
		}

		if err := tool.Run(ctx, invocation, logWriter); err != nil {
			return err
		}
	}

	ref := opts.Ref
	if ref == "" {
		ref = "HEAD"
	}

	invocation := tool.Invocation{
		Binary: c.binary,
		Args:   []string{"-C", opts.Dir, "checkout", "--force", ref},
	}

	return tool.Run(ctx, invocation, logWriter)
}

// RevParse resolves a ref to a full commit SHA, for commit status reporting.
func (c *Client) RevParse(ctx context.Context, dir, ref string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "RevParse")
	defer span.End()

	if ref == "" {
		ref = "HEAD"
	}

	return tool.Output(ctx, tool.Invocation{
		Binary: c.binary,
		Args:   []string{"-C", dir, "rev-parse", ref},
	})
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
