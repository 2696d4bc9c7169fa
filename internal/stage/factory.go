package stage

import (
	"fmt"
	"os"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/condition"
	"github.com/conveyor-ci/conveyor/internal/defaults"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/pipelineconfig"
	"github.com/conveyor-ci/conveyor/internal/tool/compose"
	"github.com/conveyor-ci/conveyor/internal/tool/docker"
	"github.com/conveyor-ci/conveyor/internal/tool/git"
	"github.com/conveyor-ci/conveyor/internal/tool/sonar"
	"github.com/conveyor-ci/conveyor/internal/tool/trivy"
	"github.com/conveyor-ci/conveyor/internal/tool/zap"
	"go.opentelemetry.io/otel/trace"
)

// default classification per stage type; the pipeline file may override it
var defaultClasses = map[string]pipeline.Class{
	"checkout":    pipeline.ClassBlocking,
	"sast":        pipeline.ClassAdvisory,
	"image":       pipeline.ClassBlocking,
	"vulnscan":    pipeline.ClassAdvisory,
	"vulnsummary": pipeline.ClassAdvisory,
	"dast":        pipeline.ClassAdvisory,
	"deploy":      pipeline.ClassBlocking,
}

// Factory turns stage configs into runnable stages, wiring in the external
// tool clients.
type Factory struct {
	git            GitClient
	sonar          SonarClient
	docker         DockerClient
	trivy          TrivyClient
	zap            ZAPClient
	compose        ComposeClient
	getenv         func(string) string
	tracerProvider trace.TracerProvider
}

func NewFactory(options ...func(*Factory)) *Factory {
	factory := Factory{
		getenv:         os.Getenv,
		tracerProvider: defaults.TracerProvider,
	}

	for _, apply := range options {
		apply(&factory)
	}

	if factory.git == nil {
		factory.git = git.New(git.WithTracerProvider(factory.tracerProvider))
	}
	if factory.sonar == nil {
		factory.sonar = sonar.New(sonar.WithTracerProvider(factory.tracerProvider))
	}
	if factory.docker == nil {
		factory.docker = docker.New(docker.WithTracerProvider(factory.tracerProvider))
	}
	if factory.trivy == nil {
		factory.trivy = trivy.New(trivy.WithTracerProvider(factory.tracerProvider))
	}
	if factory.zap == nil {
		factory.zap = zap.New(zap.WithTracerProvider(factory.tracerProvider))
	}
	if factory.compose == nil {
		factory.compose = compose.New(compose.WithTracerProvider(factory.tracerProvider))
	}

	return &factory
}

// Build constructs the ordered stage list for a run.
func (f *Factory) Build(config *pipelineconfig.Config, artifacts *artifact.Store) ([]pipeline.Stage, error) {
	stages := make([]pipeline.Stage, 0, len(config.Stages))

	for _, stageConfig := range config.Stages {
		stage, err := f.buildStage(config, stageConfig, artifacts)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", stageConfig.Name, err)
		}

		stages = append(stages, stage)
	}

	return stages, nil
}

func (f *Factory) buildStage(
	config *pipelineconfig.Config,
	stageConfig pipelineconfig.StageConfig,
	artifacts *artifact.Store,
) (pipeline.Stage, error) {
	class, known := defaultClasses[stageConfig.Type]
	if !known {
		return nil, fmt.Errorf("unknown stage type: %q", stageConfig.Type)
	}

	if stageConfig.Class != "" {
		class = pipeline.Class(stageConfig.Class)
	}

	when, err := condition.Compile(stageConfig.When)
	if err != nil {
		return nil, err
	}

	params := Params{
		Name:             stageConfig.Name,
		Class:            class,
		When:             when,
		AllowMissingTool: stageConfig.AllowMissingTool,
		WorkDir:          config.WorkDir,
		Env:              config.Env,
		Getenv:           f.getenv,
	}

	switch stageConfig.Type {
	case "checkout":
		var opts CheckoutOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewCheckout(params, f.git, opts), nil

	case "sast":
		var opts SASTOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewSAST(params, f.sonar, opts), nil

	case "image":
		var opts ImageOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewImage(params, f.docker, opts), nil

	case "vulnscan":
		var opts VulnScanOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewVulnScan(params, f.trivy, artifacts, opts), nil

	case "vulnsummary":
		var opts VulnSummaryOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewVulnSummary(params, artifacts, opts), nil

	case "dast":
		var opts DASTOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewDAST(params, f.zap, artifacts, opts), nil

	case "deploy":
		var opts DeployOptions
		if err := decodeOptions(stageConfig, &opts); err != nil {
			return nil, err
		}

		return NewDeploy(params, f.compose, opts), nil
	}

	return nil, fmt.Errorf("unknown stage type: %q", stageConfig.Type)
}

func decodeOptions(stageConfig pipelineconfig.StageConfig, target any) error {
	if stageConfig.Options.IsZero() {
		return nil
	}

	if err := stageConfig.Options.Decode(target); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}

	return nil
}

func WithGitClient(client GitClient) func(*Factory) {
	return func(f *Factory) {
		f.git = client
	}
}

func WithSonarClient(client SonarClient) func(*Factory) {
	return func(f *Factory) {
		f.sonar = client
	}
}

func WithDockerClient(client DockerClient) func(*Factory) {
	return func(f *Factory) {
		f.docker = client
	}
}

func WithTrivyClient(client TrivyClient) func(*Factory) {
	return func(f *Factory) {
		f.trivy = client
	}
}

func WithZAPClient(client ZAPClient) func(*Factory) {
	return func(f *Factory) {
		f.zap = client
	}
}

func WithComposeClient(client ComposeClient) func(*Factory) {
	return func(f *Factory) {
		f.compose = client
	}
}

func WithGetenv(getenv func(string) string) func(*Factory) {
	return func(f *Factory) {
		f.getenv = getenv
	}
}

func WithTracerProvider(tp trace.TracerProvider) func(*Factory) {
	return func(f *Factory) {
		f.tracerProvider = tp
	}
}
