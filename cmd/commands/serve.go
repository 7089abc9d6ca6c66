package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/skillbox/internal/config"
	"github.com/dohr-michael/skillbox/internal/events"
	"github.com/dohr-michael/skillbox/internal/gateway"
	"github.com/dohr-michael/skillbox/internal/heartbeat"
	"github.com/dohr-michael/skillbox/internal/scheduler"
	"github.com/dohr-michael/skillbox/internal/storage"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the skillbox gateway server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	cfg := loadConfig(cmd)

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Event bus
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	// JSONL event log, one file per trace
	eventLog := storage.NewEventLogger(filepath.Join(config.SkillboxPath(), "events"), bus)
	defer eventLog.Close()

	// Execution history store
	store, err := storage.NewExecStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open execution store: %w", err)
	}
	defer store.Close()
	store.Attach(bus)

	// Executor over the skill directory
	executor := buildExecutor(cfg, bus)
	if err := executor.EnsureLoaded(ctx); err != nil {
		slog.Warn("initial skill scan failed", "error", err)
	} else {
		slog.Info("skills loaded", "count", len(executor.ListSkills(nil)))
	}

	// Cron schedules from config
	sched := scheduler.New(executor, bus, cfg.Schedule)
	sched.Start()
	defer sched.Stop()

	// Liveness file for the status command
	hb := heartbeat.NewWriter(filepath.Join(config.SkillboxPath(), "heartbeat.json"))
	hb.Addr = fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	hb.SkillCount = func() int { return len(executor.ListSkills(nil)) }
	hb.Start()
	defer hb.Stop()

	// Gateway server
	server := gateway.NewServer(executor, bus, store, cfg.Gateway.Host, cfg.Gateway.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
