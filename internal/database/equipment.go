package database

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	equipmentColumns = columnsOf[Equipment]()
	historyColumns   = columnsOf[AssignmentHistory]()
)

// columnsOf lists the db tags of T in field order.
func columnsOf[T any]() []string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	cols := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

func returning(cols []string) string {
	return "RETURNING " + strings.Join(cols, ", ")
}

// ListEquipment returns equipment rows matching p.
func (q *Queries) ListEquipment(ctx context.Context, p ListParams) ([]Equipment, error) {
	return collectAll[Equipment](ctx, q, p.apply(q.sb.Select(equipmentColumns...).From(TableEquipment)))
}

// GetEquipment returns the row with primary key id, deleted or not.
func (q *Queries) GetEquipment(ctx context.Context, id int64) (Equipment, error) {
	return collectOne[Equipment](ctx, q, q.sb.Select(equipmentColumns...).From(TableEquipment).Where(sq.Eq{"id": id}))
}

// GetEquipmentByEquipmentID matches the public ID case-insensitively,
// deleted or not.
func (q *Queries) GetEquipmentByEquipmentID(ctx context.Context, equipmentID string) (Equipment, error) {
	return collectOne[Equipment](ctx, q, q.sb.Select(equipmentColumns...).From(TableEquipment).
		Where("upper(equipment_id) = upper(?)", equipmentID))
}

// GetEquipmentBySerial returns the row holding serial, deleted or not.
func (q *Queries) GetEquipmentBySerial(ctx context.Context, serial string) (Equipment, error) {
	return collectOne[Equipment](ctx, q, q.sb.Select(equipmentColumns...).From(TableEquipment).
		Where(sq.Eq{"serial_number": serial}))
}

// InsertEquipment inserts a row from a column/value map and returns it.
func (q *Queries) InsertEquipment(ctx context.Context, values map[string]any) (Equipment, error) {
	return collectOne[Equipment](ctx, q, q.sb.Insert(TableEquipment).SetMap(values).
		Suffix(returning(equipmentColumns)))
}

// UpdateEquipment applies values to the row with primary key id and bumps
// updated_at.
func (q *Queries) UpdateEquipment(ctx context.Context, id int64, values map[string]any) (Equipment, error) {
	return collectOne[Equipment](ctx, q, q.sb.Update(TableEquipment).SetMap(values).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning(equipmentColumns)))
}

// SetEquipmentDeleted flips the soft-delete flag and stamps deleted_at.
func (q *Queries) SetEquipmentDeleted(ctx context.Context, id int64, deleted bool) (Equipment, error) {
	return collectOne[Equipment](ctx, q, softDelete(q.sb, TableEquipment, id, deleted).
		Suffix(returning(equipmentColumns)))
}

func softDelete(sb sq.StatementBuilderType, table string, id int64, deleted bool) sq.UpdateBuilder {
	b := sb.Update(table).
		Set("is_deleted", deleted).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})
	if deleted {
		return b.Set("deleted_at", sq.Expr("now()"))
	}
	return b.Set("deleted_at", nil)
}

// NextEquipmentNumber returns the next per-type sequence number. Call it
// while holding LockSequence for the type.
func (q *Queries) NextEquipmentNumber(ctx context.Context, equipmentType string) (int32, error) {
	return q.nextNumber(ctx, TableEquipment, "equipment_id_num", sq.Eq{"equipment_type": equipmentType})
}

// FindEquipmentKeys returns rows whose equipment_id or serial_number appear
// in the given lists, including deleted rows.
func (q *Queries) FindEquipmentKeys(ctx context.Context, equipmentIDs, serials []string) ([]RecordKey, error) {
	if len(equipmentIDs) == 0 && len(serials) == 0 {
		return []RecordKey{}, nil
	}
	upper := make([]string, len(equipmentIDs))
	for i, id := range equipmentIDs {
		upper[i] = strings.ToUpper(id)
	}
	return collectAll[RecordKey](ctx, q, q.sb.
		Select("equipment_id AS public_id", "serial_number AS serial", "is_deleted").
		From(TableEquipment).
		Where(sq.Or{
			sq.Expr("upper(equipment_id) = ANY(?)", upper),
			sq.Expr("serial_number = ANY(?)", serials),
		}))
}

type InsertAssignmentHistoryParams struct {
	EquipmentID           int64
	PreviousUser          pgtype.Text
	PreviousUsageType     pgtype.Text
	PreviousEquipmentName pgtype.Text
	StartDate             pgtype.Date
	EndDate               pgtype.Date
}

func (q *Queries) InsertAssignmentHistory(ctx context.Context, arg InsertAssignmentHistoryParams) (AssignmentHistory, error) {
	return collectOne[AssignmentHistory](ctx, q, q.sb.Insert(TableAssignmentHistory).
		Columns("equipment_id", "previous_user", "previous_usage_type", "previous_equipment_name", "start_date", "end_date").
		Values(arg.EquipmentID, arg.PreviousUser, arg.PreviousUsageType, arg.PreviousEquipmentName, arg.StartDate, arg.EndDate).
		Suffix(returning(historyColumns)))
}

// ListAssignmentHistory returns history for one equipment row, newest first.
func (q *Queries) ListAssignmentHistory(ctx context.Context, equipmentID int64) ([]AssignmentHistory, error) {
	items, err := collectAll[AssignmentHistory](ctx, q, q.sb.Select(historyColumns...).
		From(TableAssignmentHistory).
		Where(sq.Eq{"equipment_id": equipmentID}).
		OrderBy("end_date DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	return items, nil
}
