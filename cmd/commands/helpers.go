package commands

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/skillbox/internal/config"
	"github.com/dohr-michael/skillbox/internal/events"
	"github.com/dohr-michael/skillbox/internal/handlers"
	"github.com/dohr-michael/skillbox/internal/skill"
)

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func loadConfig(cmd *cli.Command) *config.Config {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Debug("config not found, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}
	return cfg
}

// buildExecutor wires the registry, builtin handler table, and executor
// from the loaded config. A nil bus is fine for one-shot commands.
func buildExecutor(cfg *config.Config, bus *events.Bus) *skill.Executor {
	registry := skill.NewRegistry(cfg.Skills.Dir)
	table := handlers.Setup(handlers.VideoConfig{
		RenderCommand: cfg.Video.RenderCommand,
		ProbeCommand:  cfg.Video.ProbeCommand,
		OutputDir:     cfg.Video.OutputDir,
	})
	return skill.NewExecutor(registry, table, bus)
}
