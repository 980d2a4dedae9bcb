package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/inventory/internal/admin"
	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	_ "github.com/JonMunkholm/inventory/internal/core/tables" // Register resources
	db "github.com/JonMunkholm/inventory/internal/database"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/JonMunkholm/inventory/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := admin.OpenPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		applied, err := db.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		slog.Info("schema up to date", "applied", len(applied))
	}

	service := core.NewService(pool, admin.ServiceOptions(cfg))
	slog.Info("resources registered", "count", len(core.All()))

	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)

	if cfg.Audit.ArchiveEnabled {
		g.Go(func() error {
			service.StartArchiveScheduler(gctx, admin.ArchiveConfig(cfg.Audit))
			return nil
		})
	}
	if cfg.Retention.PurgeEnabled {
		g.Go(func() error {
			service.StartPurgeScheduler(gctx, admin.PurgeConfig(cfg.Retention))
			return nil
		})
	}

	// Graceful shutdown: stop schedulers, drain imports, then close the
	// HTTP server.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
