package core

// scheduler.go runs the maintenance jobs:
//  1. Audit archiving moves old entries from audit_log to audit_log_archive
//     and purges archived entries past their retention.
//  2. Record purging hard-deletes records that stayed soft-deleted longer
//     than the retention period.
//
// Both schedulers run once at start, then on every tick, and return when
// the context is cancelled. A failed run is logged and retried next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ArchiveConfig holds configuration for the archive scheduler.
// Zero values fall back to the defaults noted per field.
type ArchiveConfig struct {
	HotRetentionDays      int           // Days to keep in audit_log (default: 90)
	ArchiveRetentionYears int           // Years to keep in archive (default: 7)
	BatchSize             int           // Rows per batch (default: 5000)
	CheckInterval         time.Duration // How often to run (default: 24h)
}

func (c ArchiveConfig) withDefaults() ArchiveConfig {
	if c.HotRetentionDays <= 0 {
		c.HotRetentionDays = 90
	}
	if c.ArchiveRetentionYears <= 0 {
		c.ArchiveRetentionYears = 7
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// PurgeConfig holds configuration for the record purge scheduler.
type PurgeConfig struct {
	After         time.Duration // Soft-deleted age before hard delete
	CheckInterval time.Duration // How often to run (default: 24h)
}

// every runs job now and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// StartArchiveScheduler archives old audit entries and purges very old
// archives until ctx is cancelled.
func (s *Service) StartArchiveScheduler(ctx context.Context, cfg ArchiveConfig) {
	cfg = cfg.withDefaults()
	slog.Info("archive scheduler started",
		"hot_retention_days", cfg.HotRetentionDays,
		"archive_retention_years", cfg.ArchiveRetentionYears,
		"batch_size", cfg.BatchSize,
	)
	every(ctx, cfg.CheckInterval, func(ctx context.Context) { s.runArchiveJob(ctx, cfg) })
	slog.Info("archive scheduler stopped")
}

// runArchiveJob performs one archive + purge cycle.
func (s *Service) runArchiveJob(ctx context.Context, cfg ArchiveConfig) {
	start := time.Now()

	archived, err := s.ArchiveAuditLog(ctx, s.now().AddDate(0, 0, -cfg.HotRetentionDays), cfg.BatchSize)
	if err != nil {
		slog.Error("archive failed", "error", err)
	} else {
		slog.Info("archived audit log entries", "entries_archived", archived)
	}

	purged, err := s.queries().PurgeAuditArchive(ctx, s.now().AddDate(-cfg.ArchiveRetentionYears, 0, 0))
	if err != nil {
		slog.Error("archive purge failed", "error", err)
	} else {
		slog.Info("purged old archive entries", "entries_purged", purged)
	}

	slog.Info("archive job completed", "duration_ms", time.Since(start).Milliseconds())
}

// ArchiveAuditLog moves entries older than cutoff to the archive in
// batches and returns how many moved.
func (s *Service) ArchiveAuditLog(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	q := s.queries()
	var total int64
	for {
		n, err := q.ArchiveAuditLog(ctx, cutoff, batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < int64(batchSize) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

// StartPurgeScheduler hard-deletes records soft-deleted longer than
// cfg.After until ctx is cancelled.
func (s *Service) StartPurgeScheduler(ctx context.Context, cfg PurgeConfig) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}
	slog.Info("purge scheduler started", "purge_after", cfg.After.String())
	every(ctx, cfg.CheckInterval, func(ctx context.Context) {
		start := time.Now()
		purged, err := s.PurgeDeleted(ctx, cfg.After)
		if err != nil {
			slog.Error("purge failed", "error", err)
			return
		}
		slog.Info("purge job completed", "purged", purged, "duration_ms", time.Since(start).Milliseconds())
	})
	slog.Info("purge scheduler stopped")
}

// PurgeDeleted hard-deletes every record soft-deleted more than olderThan
// ago and returns the count per resource. Each purged resource gets one
// audit entry.
func (s *Service) PurgeDeleted(ctx context.Context, olderThan time.Duration) (map[string]int64, error) {
	if olderThan < 0 {
		return nil, invalidf("purge age must not be negative")
	}
	cutoff := s.now().Add(-olderThan)
	out := make(map[string]int64)

	for _, def := range All() {
		n, err := s.queries().PurgeDeleted(ctx, def.Info.Table, cutoff)
		if err != nil {
			return out, fmt.Errorf("purge %s: %w", def.Info.Key, err)
		}
		out[def.Info.Key] = n
		if n == 0 {
			continue
		}
		s.logAudit(ctx, AuditParams{
			Action:   ActionPurge,
			Resource: def.Info.Key,
			RowData:  map[string]any{"purged": n, "cutoff": cutoff.UTC().Format(time.RFC3339)},
			Reason:   "retention purge",
		})
	}
	return out, nil
}
