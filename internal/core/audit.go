package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionCreate  AuditAction = "create"
	ActionUpdate  AuditAction = "update"
	ActionDelete  AuditAction = "delete"
	ActionRestore AuditAction = "restore"
	ActionImport  AuditAction = "import"
	ActionPurge   AuditAction = "purge"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// ResourceCategories is the audit resource name for category changes.
const ResourceCategories = "categories"

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionCreate:
		return SeverityLow
	case ActionDelete, ActionImport:
		return SeverityHigh
	case ActionPurge:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// FieldChange is the before and after value of one changed field.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditParams contains parameters for creating an audit log entry.
type AuditParams struct {
	Action   AuditAction
	Resource string
	RecordID string
	ImportID string
	RowData  any
	Changes  map[string]FieldChange
	Reason   string
}

// logAudit records an entry. Failures are logged, not returned: an audit
// outage must not block inventory changes that already committed.
func (s *Service) logAudit(ctx context.Context, p AuditParams) {
	if s.pool == nil {
		return
	}
	if _, err := s.LogAudit(ctx, p); err != nil {
		slog.Warn("audit log write failed",
			"action", p.Action,
			"resource", p.Resource,
			"record_id", p.RecordID,
			"error", err,
		)
	}
}

// LogAudit creates a new audit log entry, stamping the client from ctx.
func (s *Service) LogAudit(ctx context.Context, p AuditParams) (db.AuditLog, error) {
	client := ClientFromContext(ctx)

	var rowData, changes json.RawMessage
	if p.RowData != nil {
		b, err := json.Marshal(p.RowData)
		if err != nil {
			return db.AuditLog{}, fmt.Errorf("marshal row data: %w", err)
		}
		rowData = b
	}
	if len(p.Changes) > 0 {
		b, err := json.Marshal(p.Changes)
		if err != nil {
			return db.AuditLog{}, fmt.Errorf("marshal changes: %w", err)
		}
		changes = b
	}

	return s.queries().InsertAuditLog(ctx, db.InsertAuditLogParams{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Action:    string(p.Action),
		Severity:  string(determineSeverity(p.Action)),
		Resource:  p.Resource,
		RecordID:  ToPgText(p.RecordID),
		ImportID:  ToPgUUID(p.ImportID),
		RowData:   rowData,
		Changes:   changes,
		IPAddress: ToPgText(client.IPAddress),
		UserAgent: ToPgText(client.auditAgent()),
		Reason:    ToPgText(p.Reason),
	})
}

// auditIgnored lists bookkeeping fields left out of change sets.
var auditIgnored = map[string]bool{
	"updated_at": true,
	"created_at": true,
	"deleted_at": true,
}

// diffRecords compares the JSON forms of two records and returns the fields
// whose values differ.
func diffRecords(before, after any) map[string]FieldChange {
	b, errB := jsonFields(before)
	a, errA := jsonFields(after)
	if errB != nil || errA != nil {
		return nil
	}

	changes := make(map[string]FieldChange)
	for k, nv := range a {
		if auditIgnored[k] {
			continue
		}
		if ov := b[k]; !reflect.DeepEqual(ov, nv) {
			changes[k] = FieldChange{Old: ov, New: nv}
		}
	}
	for k, ov := range b {
		if _, ok := a[k]; !ok && !auditIgnored[k] {
			changes[k] = FieldChange{Old: ov, New: nil}
		}
	}
	return changes
}

func jsonFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ============================================================================
// Queries
// ============================================================================

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AuditQuery is a parsed audit list request.
type AuditQuery struct {
	Filter db.AuditLogFilter
	Limit  uint64
	Offset uint64
}

// AuditPage is one page of audit entries with the total match count.
type AuditPage struct {
	Entries []db.AuditLog `json:"entries"`
	Total   int64         `json:"total"`
	Limit   uint64        `json:"limit"`
	Offset  uint64        `json:"offset"`
}

// ParseAuditQuery reads resource, action, severity, record_id, import_id,
// since, until, limit and offset.
func ParseAuditQuery(v url.Values) (AuditQuery, error) {
	q := AuditQuery{
		Filter: db.AuditLogFilter{
			Resource: strings.TrimSpace(v.Get("resource")),
			Action:   strings.TrimSpace(v.Get("action")),
			Severity: strings.TrimSpace(v.Get("severity")),
			RecordID: strings.TrimSpace(v.Get("record_id")),
		},
		Limit: defaultAuditLimit,
	}

	if raw := strings.TrimSpace(v.Get("import_id")); raw != "" {
		id := ToPgUUID(raw)
		if !id.Valid {
			return q, invalidf("import_id must be a UUID")
		}
		q.Filter.ImportID = id
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &q.Filter.Since},
		{"until", &q.Filter.Until},
	} {
		raw := strings.TrimSpace(v.Get(p.name))
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			*p.dst = t
			continue
		}
		t, ok := ParseDate(raw)
		if !ok {
			return q, invalidf("%s: invalid date %q", p.name, raw)
		}
		*p.dst = t
	}

	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			return q, invalidf("limit must be a positive integer")
		}
		q.Limit = min(n, maxAuditLimit)
	}
	var err error
	if q.Offset, err = parseUintParam(v, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

// ListAudit returns a page of audit entries, newest first.
func (s *Service) ListAudit(ctx context.Context, aq AuditQuery) (AuditPage, error) {
	q := s.queries()
	entries, err := q.ListAuditLog(ctx, aq.Filter, aq.Limit, aq.Offset)
	if err != nil {
		return AuditPage{}, fmt.Errorf("list audit log: %w", err)
	}
	total, err := q.CountAuditLog(ctx, aq.Filter)
	if err != nil {
		return AuditPage{}, fmt.Errorf("count audit log: %w", err)
	}
	return AuditPage{Entries: entries, Total: total, Limit: aq.Limit, Offset: aq.Offset}, nil
}
