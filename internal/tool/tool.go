// Package tool holds the shared plumbing for shelling out to the external
// binaries the pipeline stages delegate to.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

// Invocation describes a single run of an external binary. Stdout and stderr
// both go to the stage log writer.
type Invocation struct {
	Binary string
	Args   []string
	Dir    string
	Env    []string // KEY=VALUE pairs appended to the process environment
	Stdin  io.Reader
}

// Available reports whether the binary can be resolved via PATH.
func Available(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Run executes the invocation and waits for it to finish. A binary that
// cannot be resolved yields pipeline.ErrCannotStart so the runner can apply
// its halt-unless-guarded policy.
func Run(ctx context.Context, invocation Invocation, logWriter io.Writer) error {
	if _, err := exec.LookPath(invocation.Binary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", invocation.Binary, pipeline.ErrCannotStart)
	}

	cmd := exec.CommandContext(ctx, invocation.Binary, invocation.Args...)
	cmd.Dir = invocation.Dir
	cmd.Stdin = invocation.Stdin
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	if len(invocation.Env) > 0 {
		cmd.Env = append(os.Environ(), invocation.Env...)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", invocation.Binary, strings.Join(invocation.Args, " "), err)
	}

	return nil
}

// Output executes the invocation and returns its trimmed stdout. Stderr is
// captured for the error message only.
func Output(ctx context.Context, invocation Invocation) (string, error) {
	if _, err := exec.LookPath(invocation.Binary); err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", invocation.Binary, pipeline.ErrCannotStart)
	}

	cmd := exec.CommandContext(ctx, invocation.Binary, invocation.Args...)
	cmd.Dir = invocation.Dir

	if len(invocation.Env) > 0 {
		cmd.Env = append(os.Environ(), invocation.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %s: %w", invocation.Binary, strings.Join(invocation.Args, " "), stderr.String(), err)
	}

	return strings.TrimSpace(string(out)), nil
}
