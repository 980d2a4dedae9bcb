package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
)

var auditColumns = columnsOf[AuditLog]()

type InsertAuditLogParams struct {
	ID        pgtype.UUID
	Action    string
	Severity  string
	Resource  string
	RecordID  pgtype.Text
	ImportID  pgtype.UUID
	RowData   json.RawMessage
	Changes   json.RawMessage
	IPAddress pgtype.Text
	UserAgent pgtype.Text
	Reason    pgtype.Text
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (AuditLog, error) {
	return collectOne[AuditLog](ctx, q, q.sb.Insert(TableAuditLog).
		Columns("id", "action", "severity", "resource", "record_id", "import_id",
			"row_data", "changes", "ip_address", "user_agent", "reason").
		Values(arg.ID, arg.Action, arg.Severity, arg.Resource, arg.RecordID, arg.ImportID,
			nullJSON(arg.RowData), nullJSON(arg.Changes), arg.IPAddress, arg.UserAgent, arg.Reason).
		Suffix(returning(auditColumns)))
}

// nullJSON keeps empty payloads NULL instead of sending an invalid empty
// jsonb literal.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// AuditLogFilter narrows audit queries. Zero values are ignored.
type AuditLogFilter struct {
	Resource string
	Action   string
	Severity string
	RecordID string
	ImportID pgtype.UUID
	Since    time.Time
	Until    time.Time
}

// Where renders the filter as a squirrel predicate.
func (f AuditLogFilter) Where() sq.And {
	where := sq.And{}
	if f.Resource != "" {
		where = append(where, sq.Eq{"resource": f.Resource})
	}
	if f.Action != "" {
		where = append(where, sq.Eq{"action": f.Action})
	}
	if f.Severity != "" {
		where = append(where, sq.Eq{"severity": f.Severity})
	}
	if f.RecordID != "" {
		where = append(where, sq.Eq{"record_id": f.RecordID})
	}
	if f.ImportID.Valid {
		where = append(where, sq.Eq{"import_id": f.ImportID})
	}
	if !f.Since.IsZero() {
		where = append(where, sq.GtOrEq{"created_at": f.Since})
	}
	if !f.Until.IsZero() {
		where = append(where, sq.Lt{"created_at": f.Until})
	}
	return where
}

// ListAuditLog returns entries newest first.
func (q *Queries) ListAuditLog(ctx context.Context, f AuditLogFilter, limit, offset uint64) ([]AuditLog, error) {
	b := q.sb.Select(auditColumns...).From(TableAuditLog).
		Where(f.Where()).
		OrderBy("created_at DESC", "id").
		Limit(limit).
		Offset(offset)
	return collectAll[AuditLog](ctx, q, b)
}

func (q *Queries) CountAuditLog(ctx context.Context, f AuditLogFilter) (int64, error) {
	var n int64
	err := q.queryRow(ctx, q.sb.Select("COUNT(*)").From(TableAuditLog).Where(f.Where())).Scan(&n)
	return n, err
}

// ArchiveAuditLog moves at most batch entries older than cutoff into
// audit_log_archive in a single statement and returns how many moved.
func (q *Queries) ArchiveAuditLog(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	const stmt = `
WITH moved AS (
    DELETE FROM audit_log
    WHERE id IN (
        SELECT id FROM audit_log
        WHERE created_at < $1
        ORDER BY created_at
        LIMIT $2
    )
    RETURNING *
)
INSERT INTO audit_log_archive SELECT * FROM moved`

	tag, err := q.db.Exec(ctx, stmt, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("archive audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeAuditArchive deletes archived entries older than cutoff.
func (q *Queries) PurgeAuditArchive(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.exec(ctx, q.sb.Delete(TableAuditLogArchive).Where(sq.Lt{"created_at": cutoff}))
	if err != nil {
		return 0, fmt.Errorf("purge audit archive: %w", err)
	}
	return tag.RowsAffected(), nil
}
