// Package stage holds the typed pipeline stages wrapping the external tools.
package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/condition"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

// Params carries the fields shared by every stage type, derived from the
// pipeline file by the factory.
type Params struct {
	Name             string
	Class            pipeline.Class
	When             *condition.Program
	AllowMissingTool bool
	WorkDir          string
	Env              map[string]string
	Getenv           func(string) string
}

type base struct {
	id               string
	name             string
	class            pipeline.Class
	when             *condition.Program
	allowMissingTool bool
	workDir          string
	env              map[string]string
	getenv           func(string) string
}

func newBase(params Params) base {
	getenv := params.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	return base{
		id:               Slug(params.Name),
		name:             params.Name,
		class:            params.Class,
		when:             params.When,
		allowMissingTool: params.AllowMissingTool,
		workDir:          params.WorkDir,
		env:              params.Env,
		getenv:           getenv,
	}
}

func (b *base) ID() string            { return b.id }
func (b *base) Name() string          { return b.name }
func (b *base) Class() pipeline.Class { return b.class }
func (b *base) AllowMissingTool() bool {
	return b.allowMissingTool
}

// ShouldRun implements pipeline.Conditional. Stages without a `when`
// expression always run.
func (b *base) ShouldRun(_ context.Context) (bool, error) {
	if b.when == nil {
		return true, nil
	}

	return b.when.Evaluate(condition.Context{
		Variables: map[string]any{},
		Functions: map[string]condition.Function{
			"env":        b.envFunction,
			"fileExists": b.fileExistsFunction,
		},
	})
}

func (b *base) envFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("env expects exactly 1 argument")
	}

	name, ok := args[0].(string)
	if !ok {
		return nil, errors.New("env expects a string argument")
	}

	if value, found := b.env[name]; found {
		return value, nil
	}

	return b.getenv(name), nil
}

func (b *base) fileExistsFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("fileExists expects exactly 1 argument")
	}

	path, ok := args[0].(string)
	if !ok {
		return nil, errors.New("fileExists expects a string argument")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(b.workDir, path)
	}

	_, err := os.Stat(path)

	return err == nil, nil
}

// envList renders the pipeline environment as KEY=VALUE pairs for tool
// invocations.
func (b *base) envList() []string {
	if len(b.env) == 0 {
		return nil
	}

	list := make([]string, 0, len(b.env))
	for key, value := range b.env {
		list = append(list, key+"="+value)
	}

	return list
}

// Slug derives the stable stage ID from its display name.
func Slug(name string) string {
	var sb strings.Builder

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)

		case sb.Len() > 0 && !strings.HasSuffix(sb.String(), "-"):
			sb.WriteRune('-')
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
