package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/skillbox/internal/events"
)

// NewRunCommand returns the run subcommand.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute a skill and print its result",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "skill",
				UsageText: "Skill name",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input data as a JSON object",
				Value:   "{}",
			},
			&cli.StringFlag{
				Name:  "trace",
				Usage: "Trace ID to correlate this execution",
			},
		},
		Action: runRun,
	}
}

func runRun(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	name := cmd.StringArg("skill")
	if name == "" {
		return fmt.Errorf("usage: skillbox run <skill> [--input '{...}']")
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(cmd.String("input")), &input); err != nil {
		return fmt.Errorf("parse --input: %w", err)
	}

	cfg := loadConfig(cmd)
	executor := buildExecutor(cfg, nil)

	if trace := cmd.String("trace"); trace != "" {
		ctx = events.ContextWithTraceID(ctx, trace)
	}

	result := executor.Execute(ctx, name, input, nil)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		os.Exit(1)
	}
	return nil
}
