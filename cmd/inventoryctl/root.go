package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/inventory/internal/admin"
	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/logging"
)

// app holds what the subcommands share. The database is opened lazily so
// argument errors never need a connection.
type app struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *core.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Maintenance tool for the inventory service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newPurgeCmd(a),
		newSeedCmd(a),
		newConsoleCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return nil
}

// open connects to the database and builds the service on first use.
func (a *app) open(ctx context.Context) (*core.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	pool, err := admin.OpenPool(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.service = core.NewService(pool, admin.ServiceOptions(a.cfg))
	return a.service, nil
}

func (a *app) tasks(ctx context.Context) (*admin.Tasks, error) {
	service, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	return &admin.Tasks{Pool: a.pool, Service: service}, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// resourceArg validates that the first argument names a registered resource.
func resourceArg(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resource is required (one of %s)", resourceKeys())
	}
	if _, ok := core.Get(args[0]); !ok {
		return fmt.Errorf("unknown resource %q (one of %s)", args[0], resourceKeys())
	}
	return nil
}

func resourceKeys() string {
	var keys []string
	for _, def := range core.All() {
		keys = append(keys, def.Info.Key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
