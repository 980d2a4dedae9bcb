// Package admin wires configuration to the database and the service, and
// runs the operator tasks shared by the server, the CLI and the console.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	db "github.com/JonMunkholm/inventory/internal/database"
)

// TaskTimeout is the maximum duration for one maintenance task.
const TaskTimeout = 5 * time.Minute

// OpenPool connects to PostgreSQL with the configured pool sizing and
// verifies the connection.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to database", "name", DatabaseName(cfg.URL))
	return pool, nil
}

// DatabaseName extracts the database name from a connection URL for logs,
// leaving credentials out.
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// ServiceOptions maps configuration onto service options.
func ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWaitTime,
		ImportTimeout:        cfg.Import.Timeout,
		MaxImportRows:        cfg.Import.MaxRows,
		HeaderSearchRows:     cfg.Import.HeaderSearchRows,
		Renewal: core.RenewalThresholds{
			WarningDays: cfg.Renewal.WarningDays,
			UrgentDays:  cfg.Renewal.UrgentDays,
		},
	}
}

// ArchiveConfig maps the audit section onto the archive scheduler config.
func ArchiveConfig(cfg config.AuditConfig) core.ArchiveConfig {
	return core.ArchiveConfig{
		HotRetentionDays:      cfg.HotRetentionDays,
		ArchiveRetentionYears: cfg.ArchiveRetentionYears,
		BatchSize:             cfg.BatchSize,
		CheckInterval:         cfg.CheckInterval,
	}
}

// PurgeConfig maps the retention section onto the purge scheduler config.
func PurgeConfig(cfg config.RetentionConfig) core.PurgeConfig {
	return core.PurgeConfig{
		After:         cfg.PurgeAfter,
		CheckInterval: cfg.CheckInterval,
	}
}

// Tasks runs maintenance operations, each bounded by TaskTimeout.
type Tasks struct {
	Pool    *pgxpool.Pool
	Service *core.Service
}

// Migrate applies pending schema migrations.
func (t *Tasks) Migrate(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, TaskTimeout)
	defer cancel()

	applied, err := db.Migrate(ctx, t.Pool)
	if err != nil {
		return applied, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("migrations applied", "count", len(applied), "versions", applied)
	return applied, nil
}

// Purge hard-deletes records soft-deleted longer than olderThan.
func (t *Tasks) Purge(ctx context.Context, olderThan time.Duration) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, TaskTimeout)
	defer cancel()
	return t.Service.PurgeDeleted(ctx, olderThan)
}

// Stats counts records per resource.
func (t *Tasks) Stats(ctx context.Context) (core.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, TaskTimeout)
	defer cancel()
	return t.Service.Stats(ctx)
}

// PurgeSummary renders purge counts in resource order.
func PurgeSummary(counts map[string]int64) string {
	var parts []string
	var total int64
	for _, def := range core.All() {
		n := counts[def.Info.Key]
		total += n
		parts = append(parts, fmt.Sprintf("%s %d", def.Info.Key, n))
	}
	return fmt.Sprintf("purged %d records (%s)", total, strings.Join(parts, ", "))
}

// StatsSummary renders counts one resource per line.
func StatsSummary(st core.Stats) string {
	var b strings.Builder
	for _, def := range core.All() {
		c := st.Resources[def.Info.Key]
		fmt.Fprintf(&b, "%-14s active %6d  deleted %6d\n", def.Info.Label, c.Active, c.Deleted)
	}
	fmt.Fprintf(&b, "%-14s %d\n", "Audit entries", st.AuditEntries)
	return b.String()
}
