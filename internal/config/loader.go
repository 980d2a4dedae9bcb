package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Getenv resolves a variable name to its value. os.Getenv satisfies it.
type Getenv func(key string) string

// Load reads configuration from the process environment.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	return LoadWith(os.Getenv)
}

// LoadWith reads configuration through getenv instead of the process
// environment.
func LoadWith(getenv Getenv) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), getenv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct recursively populates struct fields from the environment.
func loadStruct(v reflect.Value, getenv Getenv) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, getenv); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value := strings.TrimSpace(getenv(envName))
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = strings.TrimSpace(getenv(alt))
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Database.URL == "" {
		fail("DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		fail("DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		fail("DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		fail("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		fail("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		fail("SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		fail("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Import.MaxFileSize <= 0 {
		fail("IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		fail("IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		fail("IMPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Import.MaxRows <= 0 {
		fail("IMPORT_MAX_ROWS must be positive")
	}
	if c.Import.HeaderSearchRows <= 0 {
		fail("IMPORT_HEADER_SEARCH_ROWS must be positive")
	}
	if c.Import.Timeout <= 0 {
		fail("IMPORT_TIMEOUT must be positive")
	}

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		fail("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ImportLimit <= 0 {
		fail("RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	if c.Audit.ArchiveEnabled {
		if c.Audit.HotRetentionDays <= 0 {
			fail("AUDIT_HOT_RETENTION_DAYS must be positive")
		}
		if c.Audit.BatchSize <= 0 {
			fail("AUDIT_ARCHIVE_BATCH_SIZE must be positive")
		}
		if c.Audit.CheckInterval <= 0 {
			fail("AUDIT_ARCHIVE_INTERVAL must be positive")
		}
	}

	if c.Retention.PurgeEnabled {
		if c.Retention.PurgeAfter <= 0 {
			fail("RETENTION_PURGE_AFTER must be positive")
		}
		if c.Retention.CheckInterval <= 0 {
			fail("RETENTION_CHECK_INTERVAL must be positive")
		}
	}

	if c.Renewal.UrgentDays < 0 {
		fail("RENEWAL_URGENT_DAYS must be non-negative")
	}
	if c.Renewal.UrgentDays >= c.Renewal.WarningDays {
		fail("RENEWAL_URGENT_DAYS (%d) must be less than RENEWAL_WARNING_DAYS (%d)",
			c.Renewal.UrgentDays, c.Renewal.WarningDays)
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		fail("REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		fail("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		fail("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Import: {MaxFileSize: %d, MaxConcurrent: %d, MaxRows: %d}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrent, c.Import.MaxRows)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
