package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/skillbox/internal/storage"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent skill executions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "skill",
				Aliases: []string{"s"},
				Usage:   "Only show executions of this skill",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records",
				Value:   20,
			},
		},
		Action: runHistory,
	}
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	cfg := loadConfig(cmd)

	store, err := storage.NewExecStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open execution store: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(ctx, cmd.String("skill"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No executions recorded.")
		return nil
	}

	for _, r := range records {
		status := "ok"
		if !r.Success {
			status = "FAIL"
		}
		line := fmt.Sprintf("%s  %-4s %-24s %.3fs",
			r.CreatedAt.Local().Format(time.DateTime), status, r.Skill, r.ExecutionTime)
		if r.Error != "" {
			line += "  " + r.Error
		}
		fmt.Println(line)
	}
	return nil
}
