package core

// preview.go implements the two-phase equipment import. Preview classifies
// every row of an upload without writing anything; the client edits the
// problematic rows, re-validates them one at a time, and confirms the rows
// it wants. Confirm runs in a single transaction with a savepoint per row.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// RowStatus classifies a preview row.
type RowStatus string

const (
	RowValidated   RowStatus = "validated"
	RowProblematic RowStatus = "problematic"
	RowDuplicate   RowStatus = "duplicate"
)

// RowIssue is one problem found in a preview row.
type RowIssue struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PreviewRow is a classified upload row.
type PreviewRow struct {
	RowNumber           int               `json:"row_number"`
	Status              RowStatus         `json:"status"`
	Data                map[string]string `json:"data"`
	Errors              []RowIssue        `json:"errors"`
	NormalizedValues    map[string]string `json:"normalized_values"`
	ExistingEquipmentID *string           `json:"existing_equipment_id"`
}

// ImportPreview is the preview of one upload.
type ImportPreview struct {
	ImportID        string       `json:"import_id"`
	TotalRows       int          `json:"total_rows"`
	ValidatedRows   []PreviewRow `json:"validated_rows"`
	ProblematicRows []PreviewRow `json:"problematic_rows"`
	DuplicateRows   []PreviewRow `json:"duplicate_rows"`
}

// ConfirmRow is a row the client chose to import, possibly edited.
type ConfirmRow struct {
	RowNumber int            `json:"row_number"`
	Data      map[string]any `json:"data"`
}

// ConfirmRequest carries the rows selected from a preview.
type ConfirmRequest struct {
	ImportID         string       `json:"import_id"`
	Rows             []ConfirmRow `json:"rows"`
	UpdateDuplicates bool         `json:"update_duplicates"`
}

// ImportRowError reports a row that failed to import.
type ImportRowError struct {
	Row          int    `json:"row"`
	SerialNumber string `json:"serial_number"`
	Error        string `json:"error"`
}

// ImportResult summarizes an equipment import.
type ImportResult struct {
	ImportID  string           `json:"import_id"`
	TotalRows int              `json:"total_rows"`
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Restored  int              `json:"restored"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Errors    []ImportRowError `json:"errors"`
}

// FieldCheck is the result of validating one form field.
type FieldCheck struct {
	Valid           bool    `json:"valid"`
	NormalizedValue *string `json:"normalized_value"`
	Error           *string `json:"error"`
}

// numberedRow is an upload row keyed by field name.
type numberedRow struct {
	Line int
	Data map[string]string
}

// suggestions holds the fix hint shown beside a field's errors.
var suggestions = map[string]string{
	"ip_address":         "Use dotted IPv4 notation, e.g. 192.168.1.20",
	"mac_address":        "Use AA:BB:CC:DD:EE:FF; label a second address with WLAN:",
	"mac_lan":            "Use AA:BB:CC:DD:EE:FF",
	"mac_wlan":           "Use AA:BB:CC:DD:EE:FF",
	"equipment_id":       "Leave blank to assign a new ID, or use PC-0001, MON-0001, SCN-0001 or PRN-0001",
	"equipment_type":     "Use one of: " + strings.Join(EquipmentTypes, ", "),
	"cpu_speed":          "Use a number with GHz or MHz, e.g. 2.5 GHz",
	"manufacturing_date": "Use YYYY-MM-DD",
	"acquisition_date":   "Use YYYY-MM-DD",
	"assignment_date":    "Use YYYY-MM-DD",
	"cost":               "Enter a number without currency symbols",
	"serial_number":      "Serial numbers must be unique within the file",
}

func issuesFrom(verrs ValidationErrors) []RowIssue {
	out := make([]RowIssue, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, RowIssue{Field: ve.Field, Message: ve.Message, Suggestion: suggestions[ve.Field]})
	}
	return out
}

// expandMACs fills mac_lan and mac_wlan from a combined mac_address cell
// unless the row already carries them. A cell holding no address is
// reported against mac_address.
func expandMACs(data map[string]string) *ValidationError {
	combined := strings.TrimSpace(data["mac_address"])
	if combined == "" {
		return nil
	}
	lan, wlan := SplitMACs(combined)
	if lan == "" && wlan == "" {
		msg := "no MAC address found"
		if err := ValidateMAC(combined); err != nil {
			msg = err.Error()
		}
		return &ValidationError{Field: "mac_address", Value: combined, Message: msg}
	}
	if strings.TrimSpace(data["mac_lan"]) == "" && lan != "" {
		data["mac_lan"] = lan
	}
	if strings.TrimSpace(data["mac_wlan"]) == "" && wlan != "" {
		data["mac_wlan"] = wlan
	}
	return nil
}

// normalizeEquipmentRow validates a row. A missing equipment type is kept
// apart because rows that update an existing record do not need one.
func normalizeEquipmentRow(data map[string]string) (norm map[string]string, verrs ValidationErrors, missingType bool) {
	row := make(map[string]string, len(data)+2)
	for k, v := range data {
		row[k] = v
	}

	var macErr *ValidationError
	if macErr = expandMACs(row); macErr != nil {
		delete(row, "mac_address")
	}

	norm, all := mustDef(ResourceEquipment).NormalizeRow(row)
	if macErr != nil {
		all = append(ValidationErrors{*macErr}, all...)
	}
	for _, ve := range all {
		if ve.Field == "equipment_type" && ve.Value == "" {
			missingType = true
			continue
		}
		verrs = append(verrs, ve)
	}
	return norm, verrs, missingType
}

// inFileKeys remembers the line on which each equipment ID and serial
// number first appeared in an upload. Both keys are tracked so a repeated
// serial is caught even when only one of the rows carries an ID.
type inFileKeys struct {
	ids     map[string]int
	serials map[string]int
}

func newInFileKeys() *inFileKeys {
	return &inFileKeys{ids: make(map[string]int), serials: make(map[string]int)}
}

// check records the row's keys and returns an issue for each key an earlier
// row already used.
func (k *inFileKeys) check(line int, norm map[string]string) []RowIssue {
	var issues []RowIssue
	see := func(seen map[string]int, field, key string) {
		if key == "" {
			return
		}
		if first, dup := seen[key]; dup {
			issues = append(issues, RowIssue{
				Field:      field,
				Message:    fmt.Sprintf("duplicate of row %d in this file", first),
				Suggestion: "Remove or merge the repeated row",
			})
			return
		}
		seen[key] = line
	}
	see(k.ids, "equipment_id", strings.ToUpper(norm["equipment_id"]))
	see(k.serials, "serial_number", norm["serial_number"])
	return issues
}

// existingKeys indexes the records an upload may collide with.
type existingKeys struct {
	byID     map[string]string
	bySerial map[string]string
}

func (k existingKeys) match(norm map[string]string) (string, bool) {
	if id, ok := k.byID[norm["equipment_id"]]; ok && norm["equipment_id"] != "" {
		return id, true
	}
	if id, ok := k.bySerial[norm["serial_number"]]; ok && norm["serial_number"] != "" {
		return id, true
	}
	return "", false
}

func (s *Service) loadExistingKeys(ctx context.Context, norms []map[string]string) (existingKeys, error) {
	var ids, serials []string
	for _, n := range norms {
		if v := n["equipment_id"]; v != "" {
			ids = append(ids, v)
		}
		if v := n["serial_number"]; v != "" {
			serials = append(serials, v)
		}
	}
	keys, err := s.queries().FindEquipmentKeys(ctx, ids, serials)
	if err != nil {
		return existingKeys{}, fmt.Errorf("find existing equipment: %w", err)
	}

	out := existingKeys{byID: make(map[string]string), bySerial: make(map[string]string)}
	for _, k := range keys {
		out.byID[strings.ToUpper(k.PublicID)] = k.PublicID
		if k.Serial.Valid {
			out.bySerial[k.Serial.String] = k.PublicID
		}
	}
	return out, nil
}

// checkedRow is an upload row after validation.
type checkedRow struct {
	norm        map[string]string
	verrs       ValidationErrors
	missingType bool
}

func checkRow(data map[string]string) checkedRow {
	norm, verrs, missingType := normalizeEquipmentRow(data)
	return checkedRow{norm: norm, verrs: verrs, missingType: missingType}
}

// classify validates rows and sorts them into the three preview buckets.
func (s *Service) classify(ctx context.Context, rows []numberedRow, checkInFile bool) ([]PreviewRow, error) {
	checked := make([]checkedRow, len(rows))
	norms := make([]map[string]string, len(rows))
	for i, r := range rows {
		checked[i] = checkRow(r.Data)
		norms[i] = checked[i].norm
	}

	existing, err := s.loadExistingKeys(ctx, norms)
	if err != nil {
		return nil, err
	}

	var seen *inFileKeys
	if checkInFile {
		seen = newInFileKeys()
	}
	out := make([]PreviewRow, len(rows))
	for i, r := range rows {
		out[i] = classifyRow(r, checked[i], existing, seen)
	}
	return out, nil
}

// classifyRow builds the preview row for r. seen is nil when repeats within
// the file are not checked. A row that matches no existing record will be
// created, so only then is a missing equipment type a problem.
func classifyRow(r numberedRow, c checkedRow, existing existingKeys, seen *inFileKeys) PreviewRow {
	pr := PreviewRow{
		RowNumber:        r.Line,
		Data:             r.Data,
		Errors:           issuesFrom(c.verrs),
		NormalizedValues: c.norm,
	}
	if seen != nil {
		pr.Errors = append(pr.Errors, seen.check(r.Line, c.norm)...)
	}

	id, matched := existing.match(c.norm)
	if matched {
		pr.ExistingEquipmentID = &id
	} else if c.missingType {
		pr.Errors = append(pr.Errors, RowIssue{
			Field:      "equipment_type",
			Message:    "required field is empty",
			Suggestion: suggestions["equipment_type"],
		})
	}

	switch {
	case len(pr.Errors) > 0:
		pr.Status = RowProblematic
	case matched:
		pr.Status = RowDuplicate
	default:
		pr.Status = RowValidated
	}
	return pr
}

// PreviewEquipmentImport parses an upload and classifies each row as
// validated, problematic or duplicate. Nothing is written.
func (s *Service) PreviewEquipmentImport(ctx context.Context, fileName string, data []byte) (*ImportPreview, error) {
	var preview *ImportPreview
	err := s.runImport(ctx, func(ctx context.Context) error {
		file, err := s.parseUpload(mustDef(ResourceEquipment), fileName, data)
		if err != nil {
			return err
		}

		rows := fileRows(file)
		classified, err := s.classify(ctx, rows, true)
		if err != nil {
			return err
		}

		preview = &ImportPreview{
			ImportID:        uuid.NewString(),
			TotalRows:       len(rows),
			ValidatedRows:   []PreviewRow{},
			ProblematicRows: []PreviewRow{},
			DuplicateRows:   []PreviewRow{},
		}
		for _, pr := range classified {
			switch pr.Status {
			case RowValidated:
				preview.ValidatedRows = append(preview.ValidatedRows, pr)
			case RowProblematic:
				preview.ProblematicRows = append(preview.ProblematicRows, pr)
			case RowDuplicate:
				preview.DuplicateRows = append(preview.DuplicateRows, pr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("equipment import previewed",
		"import_id", preview.ImportID,
		"file", fileName,
		"total_rows", preview.TotalRows,
		"validated", len(preview.ValidatedRows),
		"problematic", len(preview.ProblematicRows),
		"duplicate", len(preview.DuplicateRows),
	)
	return preview, nil
}

// fieldRow maps a JSON row onto field names. Keys may be field names or any
// accepted CSV header.
func fieldRow(def *ResourceDefinition, data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		spec, ok := def.MatchHeader(k)
		if !ok {
			continue
		}
		if s, ok := RawString(v); ok {
			out[spec.Name] = CleanCell(s)
		}
	}
	return out
}

// ValidateEquipmentRow re-validates one edited preview row against the
// database.
func (s *Service) ValidateEquipmentRow(ctx context.Context, rowNumber int, data map[string]any) (PreviewRow, error) {
	row := numberedRow{Line: rowNumber, Data: fieldRow(mustDef(ResourceEquipment), data)}
	out, err := s.classify(ctx, []numberedRow{row}, false)
	if err != nil {
		return PreviewRow{}, err
	}
	return out[0], nil
}

// ValidateField checks one form value. Fields without a dedicated rule are
// valid and echo the trimmed value.
func ValidateField(field, value string) FieldCheck {
	value = strings.TrimSpace(value)
	ok := func(v string) FieldCheck { return FieldCheck{Valid: true, NormalizedValue: &v} }
	fail := func(err error) FieldCheck {
		msg := err.Error()
		return FieldCheck{Valid: false, Error: &msg}
	}

	switch field {
	case "ip_address":
		if err := ValidateIPv4(value); err != nil {
			return fail(err)
		}
		return ok(value)
	case "mac_address":
		// A combined cell may hold several addresses, one per line.
		if macs := FindMACs(value); len(macs) > 1 {
			return ok(strings.Join(macs, "\n"))
		}
		if err := ValidateMAC(value); err != nil {
			return fail(err)
		}
		return ok(NormalizeMAC(value))
	case "mac_lan", "mac_wlan":
		if err := ValidateMAC(value); err != nil {
			return fail(err)
		}
		return ok(NormalizeMAC(value))
	case "equipment_id":
		if err := ValidateEquipmentID(value); err != nil {
			return fail(err)
		}
		return ok(NormalizeEquipmentID(value))
	case "cpu_speed":
		if err := ValidateCPUSpeed(value); err != nil {
			return fail(err)
		}
		return ok(NormalizeCPUSpeed(value))
	case "computer_subtype", "status", "usage_type", "purpose":
		return ok(TitleCase(value))
	default:
		return ok(value)
	}
}

// rowOutcome is what happened to one imported row.
type rowOutcome int

const (
	outcomeCreated rowOutcome = iota
	outcomeUpdated
	outcomeRestored
	outcomeSkipped
)

func (r *ImportResult) count(o rowOutcome) {
	switch o {
	case outcomeCreated:
		r.Created++
	case outcomeUpdated:
		r.Updated++
	case outcomeRestored:
		r.Restored++
	case outcomeSkipped:
		r.Skipped++
	}
}

// matchEquipment finds the record a row refers to: by equipment ID first,
// then by serial number. Deleted records match.
func matchEquipment(ctx context.Context, q *db.Queries, norm map[string]string) (db.Equipment, bool, error) {
	if id := norm["equipment_id"]; id != "" {
		e, err := q.GetEquipmentByEquipmentID(ctx, id)
		if err == nil {
			return e, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return db.Equipment{}, false, err
		}
	}
	if sn := norm["serial_number"]; sn != "" {
		e, err := q.GetEquipmentBySerial(ctx, sn)
		if err == nil {
			return e, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return db.Equipment{}, false, err
		}
	}
	return db.Equipment{}, false, nil
}

// applyEquipmentRow writes one row: matched records are updated (restored
// first when deleted) or skipped, the rest are created.
func applyEquipmentRow(ctx context.Context, q *db.Queries, data map[string]string, updateExisting bool, today time.Time) (rowOutcome, error) {
	def := mustDef(ResourceEquipment)
	norm, verrs, missingType := normalizeEquipmentRow(data)
	if err := verrs.Err(); err != nil {
		return 0, err
	}

	current, matched, err := matchEquipment(ctx, q, norm)
	if err != nil {
		return 0, err
	}

	if !matched {
		if missingType {
			return 0, ValidationErrors{{Field: "equipment_type", Message: "required field is empty"}}
		}
		if _, err := insertEquipment(ctx, q, def.RowValues(norm, WriteCreate)); err != nil {
			return 0, err
		}
		return outcomeCreated, nil
	}

	if !updateExisting {
		return outcomeSkipped, nil
	}
	outcome := outcomeUpdated
	if current.IsDeleted {
		if current, err = q.SetEquipmentDeleted(ctx, current.ID, false); err != nil {
			return 0, fmt.Errorf("restore equipment: %w", err)
		}
		outcome = outcomeRestored
	}
	if _, err := updateEquipment(ctx, q, current, def.RowValues(norm, WriteUpdate), today); err != nil {
		return 0, err
	}
	return outcome, nil
}

// importEquipmentRows applies rows in one transaction, counting outcomes
// into result.
func (s *Service) importEquipmentRows(ctx context.Context, result *ImportResult, rows []numberedRow, updateExisting bool) error {
	today := s.today()
	return s.eachRow(ctx, rows,
		func(q *db.Queries, r numberedRow) error {
			outcome, err := applyEquipmentRow(ctx, q, r.Data, updateExisting, today)
			if err != nil {
				return err
			}
			result.count(outcome)
			return nil
		},
		func(r numberedRow, err error) {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{
				Row:          r.Line,
				SerialNumber: r.Data["serial_number"],
				Error:        rowErrorMessage(err),
			})
		})
}

// ConfirmEquipmentImport imports the rows selected from a preview.
func (s *Service) ConfirmEquipmentImport(ctx context.Context, req ConfirmRequest) (*ImportResult, error) {
	if len(req.Rows) == 0 {
		return nil, invalidf("no rows selected for import")
	}
	importID := req.ImportID
	if _, err := uuid.Parse(importID); err != nil {
		importID = uuid.NewString()
	}

	def := mustDef(ResourceEquipment)
	rows := make([]numberedRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = numberedRow{Line: r.RowNumber, Data: fieldRow(def, r.Data)}
	}

	result := &ImportResult{ImportID: importID, TotalRows: len(rows), Errors: []ImportRowError{}}
	err := s.runImport(ctx, func(ctx context.Context) error {
		return s.importEquipmentRows(ctx, result, rows, req.UpdateDuplicates)
	})
	if err != nil {
		return nil, err
	}

	s.auditImport(ctx, ResourceEquipment, importID, result)
	return result, nil
}

// ImportEquipmentCSV is the one-shot import: rows are deduplicated by
// equipment ID or serial number (the last occurrence wins), then matched
// records are updated or restored and the rest created.
func (s *Service) ImportEquipmentCSV(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	result := &ImportResult{ImportID: uuid.NewString(), Errors: []ImportRowError{}}
	err := s.runImport(ctx, func(ctx context.Context) error {
		file, err := s.parseUpload(mustDef(ResourceEquipment), fileName, data)
		if err != nil {
			return err
		}
		result.TotalRows = len(file.Rows)

		var order []string
		byKey := make(map[string]numberedRow)
		for _, r := range file.Rows {
			rec := file.Record(r)
			key := strings.ToUpper(rec["equipment_id"])
			if key == "" {
				key = rec["serial_number"]
			}
			if key == "" {
				key = fmt.Sprintf("row_%d", r.Line)
			}
			if _, seen := byKey[key]; !seen {
				order = append(order, key)
			}
			byKey[key] = numberedRow{Line: r.Line, Data: rec}
		}

		rows := make([]numberedRow, len(order))
		for i, k := range order {
			rows[i] = byKey[k]
		}
		return s.importEquipmentRows(ctx, result, rows, true)
	})
	if err != nil {
		return nil, err
	}

	s.auditImport(ctx, ResourceEquipment, result.ImportID, result)
	return result, nil
}
