// Package pipelineconfig loads and validates the YAML pipeline definition.
package pipelineconfig

import (
	"fmt"
	"os"
	"regexp"

	"github.com/conveyor-ci/conveyor/internal/condition"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Version        int                   `yaml:"version"`
	Name           string                `yaml:"name"`
	WorkDir        string                `yaml:"workDir"`
	ReportsDir     string                `yaml:"reportsDir"`
	Env            map[string]string     `yaml:"env"`
	Status         *StatusConfig         `yaml:"status"`
	GitHub         *GitHubConfig         `yaml:"github"`
	ArtifactServer *ArtifactServerConfig `yaml:"artifactServer"`
	Stages         []StageConfig         `yaml:"stages"`
}

// StatusConfig points at an HTTP receiver for stage status updates. Auth is
// either a static bearer token or an RS256 client-credentials exchange.
type StatusConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	AuthURL        string `yaml:"authUrl"`
	AuthClientID   string `yaml:"authClientId"`
	PrivateKeyFile string `yaml:"privateKeyFile"`
}

// GitHubConfig enables commit status reporting for the checked out revision.
type GitHubConfig struct {
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Token   string `yaml:"token"`
	Context string `yaml:"context"`
}

type ArtifactServerConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type StageConfig struct {
	Name             string    `yaml:"name"`
	Type             string    `yaml:"type"`
	Class            string    `yaml:"class"` // optional override of the type's default
	When             string    `yaml:"when"`
	AllowMissingTool bool      `yaml:"allowMissingTool"`
	Options          yaml.Node `yaml:"options"`
}

var interpolationPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ReadConfigFile loads the pipeline file, interpolating `${VAR}` references
// from the supplied environment before unmarshaling, so secrets stay out of
// the file itself. A variable that is set but empty interpolates to the
// empty string; only unset variables fail the load.
func ReadConfigFile(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	interpolated, err := interpolate(string(data), lookupEnv)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal([]byte(interpolated), &config); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline file: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func interpolate(data string, lookupEnv func(string) (string, bool)) (string, error) {
	var missing []string

	expanded := interpolationPattern.ReplaceAllStringFunc(data, func(match string) string {
		name := interpolationPattern.FindStringSubmatch(match)[1]

		value, ok := lookupEnv(name)
		if !ok {
			missing = append(missing, name)
		}

		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("pipeline file references unset environment variables: %v", missing)
	}

	return expanded, nil
}

func applyDefaults(config *Config) {
	if config.Name == "" {
		config.Name = "pipeline"
	}

	if config.WorkDir == "" {
		config.WorkDir = "."
	}

	if config.ReportsDir == "" {
		config.ReportsDir = "./reports"
	}

	if config.GitHub != nil && config.GitHub.Context == "" {
		config.GitHub.Context = "conveyor"
	}

	for i := range config.Stages {
		if config.Stages[i].Name == "" {
			config.Stages[i].Name = config.Stages[i].Type
		}
	}
}

// Validate checks the structural rules the stage factory relies on.
func Validate(config *Config) error {
	if config.Version != 1 {
		return fmt.Errorf("unsupported pipeline file version: %d", config.Version)
	}

	if len(config.Stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}

	seen := make(map[string]struct{}, len(config.Stages))

	for _, stage := range config.Stages {
		if stage.Type == "" {
			return fmt.Errorf("stage %q has no type", stage.Name)
		}

		if _, duplicate := seen[stage.Name]; duplicate {
			return fmt.Errorf("duplicate stage name: %q", stage.Name)
		}
		seen[stage.Name] = struct{}{}

		switch stage.Class {
		case "", "blocking", "advisory":
		default:
			return fmt.Errorf("stage %q has invalid class: %q", stage.Name, stage.Class)
		}

		if _, err := condition.Compile(stage.When); err != nil {
			return fmt.Errorf("stage %q: %w", stage.Name, err)
		}
	}

	if config.Status != nil && config.Status.URL == "" {
		return fmt.Errorf("status block has no url")
	}

	if config.GitHub != nil && (config.GitHub.Owner == "" || config.GitHub.Repo == "") {
		return fmt.Errorf("github block needs owner and repo")
	}

	if config.ArtifactServer != nil && config.ArtifactServer.URL == "" {
		return fmt.Errorf("artifactServer block has no url")
	}

	return nil
}
