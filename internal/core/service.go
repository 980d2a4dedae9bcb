package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// Options tunes the service. Zero values fall back to the defaults below.
type Options struct {
	MaxConcurrentImports int
	ImportWait           time.Duration
	ImportTimeout        time.Duration
	MaxImportRows        int
	HeaderSearchRows     int
	Renewal              RenewalThresholds

	// PasswordVisible is how many leading characters list views leave
	// unmasked.
	PasswordVisible int
}

const (
	DefaultImportTimeout    = 5 * time.Minute
	DefaultMaxImportRows    = 20000
	DefaultHeaderSearchRows = 20
)

func (o Options) withDefaults() Options {
	if o.MaxConcurrentImports <= 0 {
		o.MaxConcurrentImports = DefaultMaxConcurrentImports
	}
	if o.ImportWait <= 0 {
		o.ImportWait = DefaultImportWait
	}
	if o.ImportTimeout <= 0 {
		o.ImportTimeout = DefaultImportTimeout
	}
	if o.MaxImportRows <= 0 {
		o.MaxImportRows = DefaultMaxImportRows
	}
	if o.HeaderSearchRows <= 0 {
		o.HeaderSearchRows = DefaultHeaderSearchRows
	}
	if o.Renewal.WarningDays <= 0 && o.Renewal.UrgentDays <= 0 {
		o.Renewal = DefaultRenewalThresholds
	}
	return o
}

// Service provides the inventory business logic: record CRUD, imports,
// exports, categories, audit and maintenance jobs.
type Service struct {
	pool    *pgxpool.Pool
	limiter *ImportLimiter
	opts    Options

	// now is replaced in tests to pin "today".
	now func() time.Time
}

// NewService creates a new Service instance.
func NewService(pool *pgxpool.Pool, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		pool:    pool,
		limiter: NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		opts:    opts,
		now:     time.Now,
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Imports returns the limiter guarding import concurrency.
func (s *Service) Imports() *ImportLimiter {
	return s.limiter
}

// today returns the current date at midnight UTC.
func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) queries() *db.Queries {
	return db.New(s.pool)
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (s *Service) withTx(ctx context.Context, fn func(q *db.Queries, tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(db.New(tx), tx)
	})
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.queries().Ping(ctx)
}

// ResourceCounts holds active and soft-deleted record counts.
type ResourceCounts struct {
	Active  int64 `json:"active"`
	Deleted int64 `json:"deleted"`
}

// Stats summarizes the inventory for the admin dashboard.
type Stats struct {
	Resources    map[string]ResourceCounts `json:"resources"`
	Imports      ImportLimiterStatus       `json:"imports"`
	AuditEntries int64                     `json:"audit_entries"`
}

// Stats counts records per resource, running imports and audit entries.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	q := s.queries()
	st := Stats{
		Resources: make(map[string]ResourceCounts),
		Imports:   s.limiter.Status(),
	}

	for _, def := range All() {
		active, err := q.CountRecords(ctx, def.Info.Table, false)
		if err != nil {
			return st, fmt.Errorf("count %s: %w", def.Info.Key, err)
		}
		deleted, err := q.CountRecords(ctx, def.Info.Table, true)
		if err != nil {
			return st, fmt.Errorf("count deleted %s: %w", def.Info.Key, err)
		}
		st.Resources[def.Info.Key] = ResourceCounts{Active: active, Deleted: deleted}
	}

	n, err := q.CountAuditLog(ctx, db.AuditLogFilter{})
	if err != nil {
		return st, fmt.Errorf("count audit log: %w", err)
	}
	st.AuditEntries = n
	return st, nil
}

// mustDef returns a registered definition. The resource packages register at
// init, so a miss is a wiring bug.
func mustDef(key string) *ResourceDefinition {
	def, ok := Get(key)
	if !ok {
		panic("core: resource not registered: " + key)
	}
	return def
}
