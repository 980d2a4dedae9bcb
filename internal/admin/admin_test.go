package admin

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	_ "github.com/JonMunkholm/inventory/internal/core/tables"
)

func TestDatabaseName(t *testing.T) {
	tests := map[string]string{
		"postgres://app:secret@db:5432/inventory?sslmode=disable": "inventory",
		"postgres://localhost":                                    "",
		"::not a url":                                             "",
	}
	for in, want := range tests {
		if got := DatabaseName(in); got != want {
			t.Errorf("DatabaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestServiceOptions(t *testing.T) {
	cfg := &config.Config{
		Import:  config.ImportConfig{MaxConcurrent: 4, MaxWaitTime: 3 * time.Second, Timeout: time.Minute, MaxRows: 500, HeaderSearchRows: 8},
		Renewal: config.RenewalConfig{WarningDays: 45, UrgentDays: 10},
	}
	want := core.Options{
		MaxConcurrentImports: 4,
		ImportWait:           3 * time.Second,
		ImportTimeout:        time.Minute,
		MaxImportRows:        500,
		HeaderSearchRows:     8,
		Renewal:              core.RenewalThresholds{WarningDays: 45, UrgentDays: 10},
	}
	if diff := cmp.Diff(want, ServiceOptions(cfg)); diff != "" {
		t.Errorf("ServiceOptions (-want +got):\n%s", diff)
	}
}

func TestSchedulerConfigs(t *testing.T) {
	ac := ArchiveConfig(config.AuditConfig{HotRetentionDays: 30, ArchiveRetentionYears: 2, BatchSize: 100, CheckInterval: time.Hour})
	if ac != (core.ArchiveConfig{HotRetentionDays: 30, ArchiveRetentionYears: 2, BatchSize: 100, CheckInterval: time.Hour}) {
		t.Errorf("ArchiveConfig = %+v", ac)
	}

	pc := PurgeConfig(config.RetentionConfig{PurgeEnabled: true, PurgeAfter: 48 * time.Hour, CheckInterval: time.Hour})
	if pc != (core.PurgeConfig{After: 48 * time.Hour, CheckInterval: time.Hour}) {
		t.Errorf("PurgeConfig = %+v", pc)
	}
}

func TestPurgeSummary(t *testing.T) {
	got := PurgeSummary(map[string]int64{"equipment": 2, "subscriptions": 1})
	want := "purged 3 records (equipment 2, software 0, subscriptions 1)"
	if got != want {
		t.Errorf("PurgeSummary = %q, want %q", got, want)
	}
}

func TestStatsSummary(t *testing.T) {
	got := StatsSummary(core.Stats{
		Resources:    map[string]core.ResourceCounts{"software": {Active: 12, Deleted: 3}},
		AuditEntries: 99,
	})
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], "Software") || !strings.Contains(lines[1], "12") || !strings.Contains(lines[1], "3") {
		t.Errorf("software line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[3], "99") {
		t.Errorf("audit line = %q", lines[3])
	}
}
