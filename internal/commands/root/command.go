package root

import (
	"github.com/conveyor-ci/conveyor/internal/commands/run"
	"github.com/conveyor-ci/conveyor/internal/commands/validate"
	cli "github.com/urfave/cli/v2"
)

func NewCommand() *cli.App {
	return &cli.App{
		Name:  "conveyor",
		Usage: "Runs a sequential delivery pipeline against external tools.",
		Commands: []*cli.Command{
			run.NewCommand(),
			validate.NewCommand(),
		},
	}
}
