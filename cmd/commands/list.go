package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
)

// NewListCommand returns the list subcommand.
func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List available skills",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Only show skills carrying this tag (repeatable, any match)",
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "Glob pattern on skill names (e.g. 'data-*')",
			},
		},
		Action: runList,
	}
}

func runList(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	cfg := loadConfig(cmd)

	executor := buildExecutor(cfg, nil)
	if err := executor.EnsureLoaded(ctx); err != nil {
		return fmt.Errorf("scan skills: %w", err)
	}

	summaries := executor.ListSkills(cmd.StringSlice("tag"))

	pattern := cmd.String("match")
	if pattern != "" {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
		filtered := summaries[:0]
		for _, s := range summaries {
			if ok, _ := doublestar.Match(pattern, s.Name); ok {
				filtered = append(filtered, s)
			}
		}
		summaries = filtered
	}

	if len(summaries) == 0 {
		fmt.Println("No skills found.")
		return nil
	}

	for _, s := range summaries {
		tags := ""
		if len(s.Tags) > 0 {
			tags = "  [" + strings.Join(s.Tags, ", ") + "]"
		}
		fmt.Printf("%-24s %-12s v%-8s %s%s\n", s.Name, s.Variant, s.Version, s.Description, tags)
	}
	return nil
}
