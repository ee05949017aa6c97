package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/haloteknika/fiberdesk/internal/config"
	"github.com/haloteknika/fiberdesk/internal/lifecycle"
	"github.com/haloteknika/fiberdesk/internal/netmon"
	"github.com/haloteknika/fiberdesk/internal/remote"
	"github.com/haloteknika/fiberdesk/internal/store"
	"github.com/haloteknika/fiberdesk/internal/syncer"
	"github.com/haloteknika/fiberdesk/internal/types"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "fiberdesk",
	Short: "FiberDesk - local-first incident and inventory data agent",
	RunE:  runAgent,
}

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initLogger(cfg)
	slog.Info("configuration loaded")

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	client := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.Token,
		time.Duration(cfg.Sync.HTTPTimeout))
	if !client.CanWrite() {
		// Permanent read-only mode: fetches run, local writes stay staged.
		slog.Warn("no remote credential configured, running read-only against backend")
	}

	monitor := netmon.NewMonitor(client, time.Duration(cfg.Sync.ProbeInterval))
	engine := syncer.New(db, client, monitor, time.Duration(cfg.Sync.FetchInterval), types.Collections)
	worker := lifecycle.NewWorker(engine,
		time.Duration(cfg.Lifecycle.Interval),
		time.Duration(cfg.Lifecycle.AgeThreshold),
		notifyDeletions)

	// Reconnect handling: drain staged writes before any fetch is trusted.
	monitor.OnUp(func() {
		engine.HandleReconnect(ctx)
	})
	monitor.OnDown(func() {
		slog.Warn("backend unreachable, staging local writes", "component", "agent")
	})

	var wg sync.WaitGroup
	startWorker(ctx, &wg, "netmon", monitor.Run)
	startWorker(ctx, &wg, "syncer", engine.Run)
	startWorker(ctx, &wg, "lifecycle", worker.Run)

	<-ctx.Done()
	slog.Info("shutdown initiated")

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// notifyDeletions is the user-visible notification hook for retention
// deletions. The agent has no UI surface, so it logs.
func notifyDeletions(deleted []types.Ticket) {
	for _, t := range deleted {
		slog.Info("resolved ticket pruned",
			"component", "lifecycle",
			"action", "ticket_pruned",
			"ticket_id", t.ID,
			"customer", t.Customer,
		)
	}
}

// startWorker runs a worker loop under the shared waitgroup.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, run func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		run(ctx)
	}()
	slog.Info("worker launched", "worker", name)
}

// initLogger configures the process-wide slog default.
func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}
	var handler slog.Handler
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
