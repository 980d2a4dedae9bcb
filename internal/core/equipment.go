package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// historyTracked lists the columns whose change closes an assignment.
var historyTracked = []string{"primary_user", "usage_type", "equipment_name"}

// findEquipment resolves an identifier as an equipment ID first, then as a
// serial number. Deleted rows are returned; callers decide.
func findEquipment(ctx context.Context, q *db.Queries, identifier string) (db.Equipment, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return db.Equipment{}, fmt.Errorf("equipment %w", ErrNotFound)
	}

	e, err := q.GetEquipmentByEquipmentID(ctx, identifier)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Equipment{}, fmt.Errorf("get equipment %s: %w", identifier, err)
	}

	e, err = q.GetEquipmentBySerial(ctx, identifier)
	if err != nil {
		return db.Equipment{}, notFound(err, "equipment "+identifier)
	}
	return e, nil
}

// findActiveEquipment is findEquipment that treats deleted rows as missing.
func findActiveEquipment(ctx context.Context, q *db.Queries, identifier string) (db.Equipment, error) {
	e, err := findEquipment(ctx, q, identifier)
	if err != nil {
		return e, err
	}
	if e.IsDeleted {
		return db.Equipment{}, fmt.Errorf("equipment %s %w", identifier, ErrNotFound)
	}
	return e, nil
}

// ListEquipment returns equipment matching lq.
func (s *Service) ListEquipment(ctx context.Context, lq ListQuery) ([]db.Equipment, error) {
	items, err := s.queries().ListEquipment(ctx, lq.Params(mustDef(ResourceEquipment)))
	if err != nil {
		return nil, listError("equipment", err)
	}
	return items, nil
}

// ListDeletedEquipment returns soft-deleted equipment, most recently deleted
// first.
func (s *Service) ListDeletedEquipment(ctx context.Context) ([]db.Equipment, error) {
	items, err := s.queries().ListEquipment(ctx, db.ListParams{
		Where:   ListQuery{DeletedOnly: true}.Where(mustDef(ResourceEquipment)),
		OrderBy: []string{"deleted_at DESC NULLS LAST", "id DESC"},
	})
	if err != nil {
		return nil, fmt.Errorf("list deleted equipment: %w", err)
	}
	return items, nil
}

// GetEquipment returns an active record by equipment ID or serial number.
func (s *Service) GetEquipment(ctx context.Context, identifier string) (db.Equipment, error) {
	return findActiveEquipment(ctx, s.queries(), identifier)
}

// checkSerial fails with ErrConflict when serial belongs to a record other
// than selfID. Deleted records still hold their serial.
func checkSerial(ctx context.Context, q *db.Queries, serial string, selfID int64) error {
	if serial == "" {
		return nil
	}
	holder, err := q.GetEquipmentBySerial(ctx, serial)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check serial number: %w", err)
	}
	if holder.ID == selfID {
		return nil
	}
	state := ""
	if holder.IsDeleted {
		state = " (deleted)"
	}
	return fmt.Errorf("%w: serial number %q is already assigned to %s%s", ErrConflict, serial, holder.EquipmentID, state)
}

// textValue extracts the string from a pgtype.Text column value.
func textValue(values map[string]any, col string) (string, bool) {
	v, ok := values[col]
	if !ok {
		return "", false
	}
	t, _ := v.(pgtype.Text)
	return t.String, t.Valid
}

// insertEquipment assigns the next ID for the type and inserts the row.
// values must already be validated.
func insertEquipment(ctx context.Context, q *db.Queries, values map[string]any) (db.Equipment, error) {
	equipmentType, _ := textValue(values, "equipment_type")
	prefix, ok := EquipmentPrefix(equipmentType)
	if !ok {
		return db.Equipment{}, invalidf("unknown equipment type %q", equipmentType)
	}
	if st, ok := values["status"].(pgtype.Text); !ok || !st.Valid {
		values["status"] = "Active"
	}

	serial, _ := textValue(values, "serial_number")
	if err := checkSerial(ctx, q, serial, 0); err != nil {
		return db.Equipment{}, err
	}

	if err := q.LockSequence(ctx, "equipment:"+prefix); err != nil {
		return db.Equipment{}, fmt.Errorf("lock equipment sequence: %w", err)
	}
	n, err := q.NextEquipmentNumber(ctx, equipmentType)
	if err != nil {
		return db.Equipment{}, err
	}
	values["equipment_id"] = FormatPublicID(prefix, n)
	values["equipment_id_num"] = n

	e, err := q.InsertEquipment(ctx, values)
	if err != nil {
		if isUniqueViolation(err) {
			return db.Equipment{}, fmt.Errorf("%w: serial number or equipment id already exists", ErrConflict)
		}
		return db.Equipment{}, fmt.Errorf("insert equipment: %w", err)
	}
	return e, nil
}

// CreateEquipment validates payload and inserts a new record with a freshly
// allocated equipment ID.
func (s *Service) CreateEquipment(ctx context.Context, payload map[string]any) (db.Equipment, error) {
	def := mustDef(ResourceEquipment)
	values, verrs := def.BuildValues(payload, WriteCreate)
	if err := verrs.Err(); err != nil {
		return db.Equipment{}, err
	}

	var created db.Equipment
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		created, err = insertEquipment(ctx, q, values)
		return err
	})
	if err != nil {
		return db.Equipment{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionCreate,
		Resource: ResourceEquipment,
		RecordID: created.EquipmentID,
		RowData:  created,
	})
	return created, nil
}

// assignmentChanged reports whether values change a tracked assignment column.
func assignmentChanged(current db.Equipment, values map[string]any) bool {
	old := map[string]pgtype.Text{
		"primary_user":   current.PrimaryUser,
		"usage_type":     current.UsageType,
		"equipment_name": current.EquipmentName,
	}
	for _, col := range historyTracked {
		v, ok := values[col]
		if !ok {
			continue
		}
		nv, _ := v.(pgtype.Text)
		if TextString(nv) != TextString(old[col]) {
			return true
		}
	}
	return false
}

// checkStatusKept rejects an API update that would clear the status
// column. Imports skip it: an empty status cell keeps the stored status.
func checkStatusKept(values map[string]any) error {
	if st, ok := values["status"].(pgtype.Text); ok && !st.Valid {
		return ValidationErrors{{Field: "status", Message: "status cannot be cleared; choose a status instead"}}
	}
	return nil
}

// closedAssignment is the history row that ends current's assignment today.
// It starts on the record's assignment date.
func closedAssignment(current db.Equipment, today time.Time) db.InsertAssignmentHistoryParams {
	return db.InsertAssignmentHistoryParams{
		EquipmentID:           current.ID,
		PreviousUser:          current.PrimaryUser,
		PreviousUsageType:     current.UsageType,
		PreviousEquipmentName: current.EquipmentName,
		StartDate:             current.AssignmentDate,
		EndDate:               pgtype.Date{Time: today, Valid: true},
	}
}

// updateEquipment applies validated values to current, closing the current
// assignment into history when a tracked column changes.
func updateEquipment(ctx context.Context, q *db.Queries, current db.Equipment, values map[string]any, today time.Time) (db.Equipment, error) {
	if st, ok := values["status"].(pgtype.Text); ok && !st.Valid {
		delete(values, "status")
	}
	if len(values) == 0 {
		return current, nil
	}

	if serial, ok := textValue(values, "serial_number"); ok && serial != TextString(current.SerialNumber) {
		if err := checkSerial(ctx, q, serial, current.ID); err != nil {
			return db.Equipment{}, err
		}
	}

	if assignmentChanged(current, values) {
		if _, err := q.InsertAssignmentHistory(ctx, closedAssignment(current, today)); err != nil {
			return db.Equipment{}, fmt.Errorf("record assignment history: %w", err)
		}
	}

	updated, err := q.UpdateEquipment(ctx, current.ID, values)
	if err != nil {
		if isUniqueViolation(err) {
			return db.Equipment{}, fmt.Errorf("%w: serial number already exists", ErrConflict)
		}
		return db.Equipment{}, fmt.Errorf("update equipment: %w", err)
	}
	return updated, nil
}

// UpdateEquipment applies a partial update. Only keys present in payload
// change; an explicit null clears the field. Equipment ID and type never
// change.
func (s *Service) UpdateEquipment(ctx context.Context, identifier string, payload map[string]any) (db.Equipment, error) {
	def := mustDef(ResourceEquipment)
	values, verrs := def.BuildValues(payload, WriteUpdate)
	if err := verrs.Err(); err != nil {
		return db.Equipment{}, err
	}
	if err := checkStatusKept(values); err != nil {
		return db.Equipment{}, err
	}

	var before, after db.Equipment
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		if before, err = findActiveEquipment(ctx, q, identifier); err != nil {
			return err
		}
		after, err = updateEquipment(ctx, q, before, values, s.today())
		return err
	})
	if err != nil {
		return db.Equipment{}, err
	}

	if changes := diffRecords(before, after); len(changes) > 0 {
		s.logAudit(ctx, AuditParams{
			Action:   ActionUpdate,
			Resource: ResourceEquipment,
			RecordID: after.EquipmentID,
			Changes:  changes,
		})
	}
	return after, nil
}

// DeleteEquipment soft-deletes an active record.
func (s *Service) DeleteEquipment(ctx context.Context, identifier string) error {
	var deleted db.Equipment
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		e, err := findActiveEquipment(ctx, q, identifier)
		if err != nil {
			return err
		}
		deleted, err = q.SetEquipmentDeleted(ctx, e.ID, true)
		return err
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionDelete,
		Resource: ResourceEquipment,
		RecordID: deleted.EquipmentID,
		RowData:  deleted,
	})
	return nil
}

// RestoreEquipment clears the soft-delete flag. Restoring an active record
// fails with ErrNotDeleted.
func (s *Service) RestoreEquipment(ctx context.Context, identifier string) (db.Equipment, error) {
	var restored db.Equipment
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		e, err := findEquipment(ctx, q, identifier)
		if err != nil {
			return err
		}
		if !e.IsDeleted {
			return fmt.Errorf("equipment %s: %w", e.EquipmentID, ErrNotDeleted)
		}
		restored, err = q.SetEquipmentDeleted(ctx, e.ID, false)
		return err
	})
	if err != nil {
		return db.Equipment{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionRestore,
		Resource: ResourceEquipment,
		RecordID: restored.EquipmentID,
	})
	return restored, nil
}

// HistoryEntry is one assignment period. The current assignment has no id
// and no end date.
type HistoryEntry struct {
	ID                    *int64      `json:"id"`
	PreviousUser          pgtype.Text `json:"previous_user"`
	PreviousUsageType     pgtype.Text `json:"previous_usage_type"`
	PreviousEquipmentName pgtype.Text `json:"previous_equipment_name"`
	StartDate             pgtype.Date `json:"start_date"`
	EndDate               pgtype.Date `json:"end_date"`
	IsCurrent             bool        `json:"is_current"`
	CreatedAt             *time.Time  `json:"created_at,omitempty"`
}

// EquipmentHistory returns past assignments, newest first. With
// includeCurrent the live assignment is prepended when a primary user is
// set.
func (s *Service) EquipmentHistory(ctx context.Context, identifier string, includeCurrent bool) ([]HistoryEntry, error) {
	q := s.queries()
	e, err := findActiveEquipment(ctx, q, identifier)
	if err != nil {
		return nil, err
	}

	rows, err := q.ListAssignmentHistory(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	return historyEntries(e, rows, includeCurrent), nil
}

// historyEntries converts stored history rows, already ordered newest
// first. With includeCurrent the live assignment leads when e has a
// primary user.
func historyEntries(e db.Equipment, rows []db.AssignmentHistory, includeCurrent bool) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(rows)+1)
	if includeCurrent && e.PrimaryUser.Valid {
		out = append(out, HistoryEntry{
			PreviousUser:          e.PrimaryUser,
			PreviousUsageType:     e.UsageType,
			PreviousEquipmentName: e.EquipmentName,
			StartDate:             e.AssignmentDate,
			IsCurrent:             true,
		})
	}
	for _, h := range rows {
		id, created := h.ID, h.CreatedAt
		out = append(out, HistoryEntry{
			ID:                    &id,
			PreviousUser:          h.PreviousUser,
			PreviousUsageType:     h.PreviousUsageType,
			PreviousEquipmentName: h.PreviousEquipmentName,
			StartDate:             h.StartDate,
			EndDate:               h.EndDate,
			CreatedAt:             &created,
		})
	}
	return out
}
