package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// NewInfoCommand returns the info subcommand.
func NewInfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the full definition of a skill",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "skill",
				UsageText: "Skill name",
			},
		},
		Action: runInfo,
	}
}

func runInfo(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	name := cmd.StringArg("skill")
	if name == "" {
		return fmt.Errorf("usage: skillbox info <skill>")
	}

	cfg := loadConfig(cmd)
	executor := buildExecutor(cfg, nil)

	info, err := executor.SkillInfo(ctx, name)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
