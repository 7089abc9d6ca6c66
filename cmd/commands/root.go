package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/skillbox/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "skillbox",
		Usage: "Discover and execute skills from a local skill directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewListCommand(),
			NewInfoCommand(),
			NewRunCommand(),
			NewServeCommand(),
			NewHistoryCommand(),
			NewStatusCommand(),
			NewMCPServeCommand(),
		},
	}
}
