package validate

import (
	"errors"
	"os"

	"github.com/conveyor-ci/conveyor/internal/artifact"
	"github.com/conveyor-ci/conveyor/internal/pipelineconfig"
	"github.com/conveyor-ci/conveyor/internal/stage"
	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"
)

var ErrCommandFailed = errors.New("command failed")

func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Checks the pipeline file without running it.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the pipeline file",
				Value:   "conveyor.yaml",
			},
		},
		Action: run,
	}
}

func run(cliCtx *cli.Context) error {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().With().Str("command", "validate").Logger()

	config, err := pipelineconfig.ReadConfigFile(cliCtx.String("config"), os.LookupEnv)
	if err != nil {
		logger.Error().Err(err).Msg("read pipeline file")
		return ErrCommandFailed
	}

	// building stages catches what structural validation cannot: unknown
	// stage types and malformed per-type options
	factory := stage.NewFactory()
	if _, err := factory.Build(config, artifact.NewStore()); err != nil {
		logger.Error().Err(err).Msg("build stages")
		return ErrCommandFailed
	}

	logger.Info().
		Str("pipeline", config.Name).
		Int("stages", len(config.Stages)).
		Msg("pipeline file is valid")

	return nil
}
