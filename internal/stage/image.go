package stage

import (
	"context"
	"fmt"
	"io"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/tool/docker"
)

var _ pipeline.Stage = (*Image)(nil)

type DockerClient interface {
	Build(ctx context.Context, logWriter io.Writer, opts docker.BuildOptions) error
	Tag(ctx context.Context, logWriter io.Writer, source, target string) error
	Push(ctx context.Context, logWriter io.Writer, image string) error
	Login(ctx context.Context, logWriter io.Writer, registry, username, password string) error
}

type ImageOptions struct {
	Image      string            `yaml:"image"`
	ContextDir string            `yaml:"contextDir"`
	Dockerfile string            `yaml:"dockerfile"`
	BuildArgs  map[string]string `yaml:"buildArgs"`
	ExtraTags  []string          `yaml:"extraTags"`
	Push       *bool             `yaml:"push"`

	Registry string `yaml:"registry"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Image builds the container image, tags it and pushes it to the registry.
type Image struct {
	base
	client DockerClient
	opts   ImageOptions
}

func NewImage(params Params, client DockerClient, opts ImageOptions) *Image {
	return &Image{
		base:   newBase(params),
		client: client,
		opts:   opts,
	}
}

func (s *Image) Run(ctx context.Context, logWriter io.Writer) error {
	if s.opts.Username != "" {
		if err := s.client.Login(ctx, logWriter, s.opts.Registry, s.opts.Username, s.opts.Password); err != nil {
			return fmt.Errorf("registry login: %w", err)
		}
	}

	contextDir := s.opts.ContextDir
	if contextDir == "" {
		contextDir = s.workDir
	}

	if err := s.client.Build(ctx, logWriter, docker.BuildOptions{
		ContextDir: contextDir,
		Dockerfile: s.opts.Dockerfile,
		Tag:        s.opts.Image,
		BuildArgs:  s.opts.BuildArgs,
	}); err != nil {
		return fmt.Errorf("build image: %w", err)
	}

	for _, tag := range s.opts.ExtraTags {
		if err := s.client.Tag(ctx, logWriter, s.opts.Image, tag); err != nil {
			return fmt.Errorf("tag image: %w", err)
		}
	}

	if s.opts.Push != nil && !*s.opts.Push {
		return nil
	}

	for _, image := range append([]string{s.opts.Image}, s.opts.ExtraTags...) {
		if err := s.client.Push(ctx, logWriter, image); err != nil {
			return fmt.Errorf("push image: %w", err)
		}
	}

	return nil
}
