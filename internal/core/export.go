package core

// export.go renders records as CSV. Columns come from the resource
// definition's exported fields, so an export can be re-imported as is.

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jszwec/csvutil"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// ExportFileName returns the attachment name for an export taken on day.
func ExportFileName(resource string, day time.Time) string {
	return fmt.Sprintf("%s_export_%s.csv", resource, day.Format(DateLayout))
}

// TemplateFileName returns the attachment name of a resource's blank
// import template.
func TemplateFileName(resource string) string {
	return resource + "_template.csv"
}

// templateFields are the export columns an import reads back.
func (d *ResourceDefinition) templateFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.ExportFields() {
		if f.Name == "is_deleted" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func headers(fields []FieldSpec) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Header()
	}
	return out
}

// WriteTemplate writes the header-only import template for def.
func WriteTemplate(def *ResourceDefinition, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(def.templateFields())); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// cellString renders a model field for CSV. Booleans export as Yes/No.
func cellString(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case string:
		return x
	case int32:
		return strconv.Itoa(int(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return YesNo(pgtype.Bool{Bool: x, Valid: true})
	case pgtype.Text:
		return TextString(x)
	case pgtype.Date:
		return DateString(x)
	case pgtype.Numeric:
		return NumericString(x)
	case pgtype.Int4:
		return Int4String(x)
	case pgtype.Int8:
		if !x.Valid {
			return ""
		}
		return strconv.FormatInt(x.Int64, 10)
	case pgtype.Bool:
		return YesNo(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case pgtype.Timestamptz:
		if !x.Valid {
			return ""
		}
		return x.Time.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// columnCells maps each db-tagged field of a model (including embedded
// structs) to its CSV text.
func columnCells(rec any) map[string]string {
	out := make(map[string]string)
	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				walk(v.Field(i))
				continue
			}
			if col := sf.Tag.Get("db"); col != "" && col != "-" {
				out[col] = cellString(v.Field(i))
			}
		}
	}
	v := reflect.Indirect(reflect.ValueOf(rec))
	if v.Kind() == reflect.Struct {
		walk(v)
	}
	return out
}

// exportRow renders rec in the column order of fields.
func exportRow(fields []FieldSpec, rec any) []string {
	cells := columnCells(rec)
	row := make([]string, len(fields))
	for i, f := range fields {
		switch f.Name {
		case "mac_address":
			row[i] = JoinMACs(cells["mac_lan"], cells["mac_wlan"])
		case "password":
			row[i] = revealCell(cells["password"])
		default:
			row[i] = cells[f.Column()]
		}
	}
	return row
}

// revealCell turns a stored password back into plaintext. Unreadable
// values export empty.
func revealCell(stored string) string {
	if stored == "" {
		return ""
	}
	plain, err := RevealPassword(stored)
	if err != nil {
		return ""
	}
	return plain
}

// exportRecords loads every record of resource in public ID order.
func (s *Service) exportRecords(ctx context.Context, def *ResourceDefinition, includeDeleted bool) ([]any, error) {
	params := ListQuery{IncludeDeleted: includeDeleted, SortBy: def.Info.IDColumn}.Params(def)
	q := s.queries()

	var out []any
	switch def.Info.Key {
	case ResourceEquipment:
		rows, err := q.ListEquipment(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, r)
		}
	case ResourceSoftware:
		rows, err := q.ListSoftware(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, r)
		}
	case ResourceSubscriptions:
		rows, err := q.ListSubscriptions(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, r)
		}
	default:
		return nil, fmt.Errorf("export %s: %w", def.Info.Key, ErrNotFound)
	}
	return out, nil
}

// Export writes every record of resource as CSV and returns the number of
// data rows written.
func (s *Service) Export(ctx context.Context, resource string, includeDeleted bool, w io.Writer) (int, error) {
	def, err := Lookup(resource)
	if err != nil {
		return 0, err
	}
	records, err := s.exportRecords(ctx, def, includeDeleted)
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", resource, err)
	}
	return writeRecords(def, records, w)
}

func writeRecords(def *ResourceDefinition, records []any, w io.Writer) (int, error) {
	fields := def.ExportFields()
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(fields)); err != nil {
		return 0, err
	}
	for _, rec := range records {
		if err := cw.Write(exportRow(fields, rec)); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(records), cw.Error()
}

// AuditCSVRow is one audit entry in the audit export.
type AuditCSVRow struct {
	ID        string    `csv:"id"`
	CreatedAt time.Time `csv:"created_at"`
	Action    string    `csv:"action"`
	Severity  string    `csv:"severity"`
	Resource  string    `csv:"resource"`
	RecordID  string    `csv:"record_id,omitempty"`
	ImportID  string    `csv:"import_id,omitempty"`
	IPAddress string    `csv:"ip_address,omitempty"`
	UserAgent string    `csv:"user_agent,omitempty"`
	Reason    string    `csv:"reason,omitempty"`
	Changes   string    `csv:"changes,omitempty"`
}

func auditCSVRow(e db.AuditLog) AuditCSVRow {
	return AuditCSVRow{
		ID:        PgUUIDToString(e.ID),
		CreatedAt: e.CreatedAt,
		Action:    e.Action,
		Severity:  e.Severity,
		Resource:  e.Resource,
		RecordID:  TextString(e.RecordID),
		ImportID:  PgUUIDToString(e.ImportID),
		IPAddress: TextString(e.IPAddress),
		UserAgent: TextString(e.UserAgent),
		Reason:    TextString(e.Reason),
		Changes:   string(e.Changes),
	}
}

// ExportAudit writes the audit entries matching aq as CSV.
func (s *Service) ExportAudit(ctx context.Context, aq AuditQuery, w io.Writer) (int, error) {
	page, err := s.ListAudit(ctx, aq)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(page.Entries) == 0 {
		if err := enc.EncodeHeader(AuditCSVRow{}); err != nil {
			return 0, err
		}
	}
	for _, e := range page.Entries {
		if err := enc.Encode(auditCSVRow(e)); err != nil {
			return 0, fmt.Errorf("encode audit row: %w", err)
		}
	}
	cw.Flush()
	return len(page.Entries), cw.Error()
}
