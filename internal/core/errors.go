package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")

	// ErrNotDeleted is returned when restoring a record that is active.
	ErrNotDeleted = errors.New("record is not deleted")

	// ErrInvalidInput is returned for malformed requests that are not tied to
	// a single field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInUse is returned when deactivating a category that active
	// subscriptions still reference.
	ErrInUse = errors.New("in use")
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found in one payload.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidInput) match validation failures.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add appends a field error.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: message})
}

// Err returns the collection as an error, or nil when empty.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// invalidf wraps ErrInvalidInput with a formatted message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound converts pgx.ErrNoRows into ErrNotFound naming what was missing.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// sqlStateInvalidRegex is PostgreSQL's invalid_regular_expression.
const sqlStateInvalidRegex = "2201B"

// listError wraps a failed list query. Search patterns are checked with Go's
// regexp before they reach PostgreSQL, but the two dialects differ, so a
// pattern PostgreSQL rejects is still reported as invalid input.
func listError(what string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateInvalidRegex {
		return invalidf("invalid regular expression: %s", pgErr.Message)
	}
	return fmt.Errorf("list %s: %w", what, err)
}
