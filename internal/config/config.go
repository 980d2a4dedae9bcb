// Package config provides centralized configuration management for the inventory service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Import    ImportConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Audit     AuditConfig
	Retention RetentionConfig
	Renewal   RenewalConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// MigrateOnStart applies pending schema migrations before serving (default: true)
	MigrateOnStart bool `env:"DB_MIGRATE_ON_START" default:"true"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of imports processed at once (default: 3)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long a request waits for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// MaxRows caps the number of data rows accepted in one file (default: 20000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"20000"`

	// HeaderSearchRows is how many leading rows are scanned for the header (default: 20)
	HeaderSearchRows int `env:"IMPORT_HEADER_SEARCH_ROWS" default:"20"`

	// Timeout is the maximum duration for a single import (default: 5m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ImportLimit is requests per minute for import endpoints (default: 20)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// AllowedOrigins is a comma-separated list of CORS origins for the browser client
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuditConfig holds audit log archiving settings.
type AuditConfig struct {
	// ArchiveEnabled turns on the archive scheduler (default: true)
	ArchiveEnabled bool `env:"AUDIT_ARCHIVE_ENABLED" default:"true"`

	// HotRetentionDays is days to keep entries in the hot table (default: 90)
	HotRetentionDays int `env:"AUDIT_HOT_RETENTION_DAYS" default:"90"`

	// ArchiveRetentionYears is years to keep archived entries (default: 7)
	ArchiveRetentionYears int `env:"AUDIT_ARCHIVE_RETENTION_YEARS" default:"7"`

	// BatchSize is rows to move per archive batch (default: 5000)
	BatchSize int `env:"AUDIT_ARCHIVE_BATCH_SIZE" default:"5000"`

	// CheckInterval is how often to run the archive job (default: 24h)
	CheckInterval time.Duration `env:"AUDIT_ARCHIVE_INTERVAL" default:"24h"`
}

// RetentionConfig controls hard deletion of soft-deleted records.
type RetentionConfig struct {
	// PurgeEnabled turns on the purge scheduler (default: false)
	PurgeEnabled bool `env:"RETENTION_PURGE_ENABLED" default:"false"`

	// PurgeAfter is how long a record stays soft-deleted before purge (default: 8760h)
	PurgeAfter time.Duration `env:"RETENTION_PURGE_AFTER" default:"8760h"`

	// CheckInterval is how often to run the purge job (default: 24h)
	CheckInterval time.Duration `env:"RETENTION_CHECK_INTERVAL" default:"24h"`
}

// RenewalConfig holds subscription renewal thresholds.
type RenewalConfig struct {
	// WarningDays marks renewals within this many days as "warning" (default: 30)
	WarningDays int `env:"RENEWAL_WARNING_DAYS" default:"30"`

	// UrgentDays marks renewals within this many days as "urgent" (default: 7)
	UrgentDays int `env:"RENEWAL_URGENT_DAYS" default:"7"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
