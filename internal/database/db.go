// Package database is the PostgreSQL persistence layer for the inventory
// service. Queries are assembled with squirrel using $n placeholders and
// executed through pgx; rows are collected into the structs in models.go by
// column name.
package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Table names. Only these are ever interpolated into SQL.
const (
	TableEquipment         = "equipment"
	TableAssignmentHistory = "assignment_history"
	TableSoftware          = "software"
	TableSubscriptions     = "subscriptions"
	TableCategories        = "categories"
	TableSubcategories     = "subcategories"
	TableAuditLog          = "audit_log"
	TableAuditLogArchive   = "audit_log_archive"

	// viewSubscriptions joins category and subcategory names onto subscriptions.
	viewSubscriptions = "subscription_details"
)

// Queries runs statements against a DBTX.
type Queries struct {
	db DBTX
	sb sq.StatementBuilderType
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// WithTx returns Queries that run inside tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return New(tx)
}

// Builder exposes the dollar-placeholder statement builder so callers can
// compose Where clauses that match this package's queries.
func (q *Queries) Builder() sq.StatementBuilderType {
	return q.sb
}

// ListParams narrows and orders a list query. A nil Where selects every row.
type ListParams struct {
	Where   sq.Sqlizer
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

func (p ListParams) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if p.Where != nil {
		b = b.Where(p.Where)
	}
	if len(p.OrderBy) > 0 {
		b = b.OrderBy(p.OrderBy...)
	}
	if p.Limit > 0 {
		b = b.Limit(p.Limit)
	}
	if p.Offset > 0 {
		b = b.Offset(p.Offset)
	}
	return b
}

func (q *Queries) exec(ctx context.Context, b sq.Sqlizer) (pgconn.CommandTag, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build statement: %w", err)
	}
	return q.db.Exec(ctx, query, args...)
}

func (q *Queries) query(ctx context.Context, b sq.Sqlizer) (pgx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return q.db.Query(ctx, query, args...)
}

func (q *Queries) queryRow(ctx context.Context, b sq.Sqlizer) pgx.Row {
	query, args, err := b.ToSql()
	if err != nil {
		return errRow{err: fmt.Errorf("build query: %w", err)}
	}
	return q.db.QueryRow(ctx, query, args...)
}

// errRow defers a build error to Scan so queryRow callers keep one error path.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// collectOne runs b and maps the single result row onto T by column name.
// It returns pgx.ErrNoRows when nothing matches.
func collectOne[T any](ctx context.Context, q *Queries, b sq.Sqlizer) (T, error) {
	rows, err := q.query(ctx, b)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}

// collectAll runs b and maps every row onto T by column name.
func collectAll[T any](ctx context.Context, q *Queries, b sq.Sqlizer) ([]T, error) {
	rows, err := q.query(ctx, b)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// LockSequence takes a transaction-scoped advisory lock for name. Callers
// allocating the next public ID hold it until commit so two writers never
// compute the same number.
func (q *Queries) LockSequence(ctx context.Context, name string) error {
	_, err := q.db.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "inventory_seq:"+name)
	return err
}

// nextNumber returns MAX(column)+1 over table rows matching where.
func (q *Queries) nextNumber(ctx context.Context, table, column string, where sq.Sqlizer) (int32, error) {
	b := q.sb.Select(fmt.Sprintf("COALESCE(MAX(%s), 0) + 1", column)).From(table)
	if where != nil {
		b = b.Where(where)
	}
	var next int32
	if err := q.queryRow(ctx, b).Scan(&next); err != nil {
		return 0, fmt.Errorf("next %s.%s: %w", table, column, err)
	}
	return next, nil
}

// CountRecords counts rows of a soft-deletable table by deletion state.
func (q *Queries) CountRecords(ctx context.Context, table string, deleted bool) (int64, error) {
	var n int64
	err := q.queryRow(ctx, q.sb.Select("COUNT(*)").From(table).Where(sq.Eq{"is_deleted": deleted})).Scan(&n)
	return n, err
}

// PurgeDeleted hard-deletes rows of table soft-deleted before cutoff.
func (q *Queries) PurgeDeleted(ctx context.Context, table string, cutoff time.Time) (int64, error) {
	tag, err := q.exec(ctx, q.sb.Delete(table).Where(sq.And{
		sq.Eq{"is_deleted": true},
		sq.Lt{"deleted_at": cutoff},
	}))
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks connectivity.
func (q *Queries) Ping(ctx context.Context) error {
	var one int
	return q.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
