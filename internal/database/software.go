package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

var softwareColumns = columnsOf[Software]()

func (q *Queries) ListSoftware(ctx context.Context, p ListParams) ([]Software, error) {
	return collectAll[Software](ctx, q, p.apply(q.sb.Select(softwareColumns...).From(TableSoftware)))
}

func (q *Queries) GetSoftware(ctx context.Context, id int64) (Software, error) {
	return collectOne[Software](ctx, q, q.sb.Select(softwareColumns...).From(TableSoftware).Where(sq.Eq{"id": id}))
}

// GetSoftwareBySoftwareID matches SW-NNNN case-insensitively, deleted or not.
func (q *Queries) GetSoftwareBySoftwareID(ctx context.Context, softwareID string) (Software, error) {
	return collectOne[Software](ctx, q, q.sb.Select(softwareColumns...).From(TableSoftware).
		Where("upper(software_id) = upper(?)", softwareID))
}

func (q *Queries) InsertSoftware(ctx context.Context, values map[string]any) (Software, error) {
	return collectOne[Software](ctx, q, q.sb.Insert(TableSoftware).SetMap(values).
		Suffix(returning(softwareColumns)))
}

func (q *Queries) UpdateSoftware(ctx context.Context, id int64, values map[string]any) (Software, error) {
	return collectOne[Software](ctx, q, q.sb.Update(TableSoftware).SetMap(values).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning(softwareColumns)))
}

func (q *Queries) SetSoftwareDeleted(ctx context.Context, id int64, deleted bool) (Software, error) {
	return collectOne[Software](ctx, q, softDelete(q.sb, TableSoftware, id, deleted).
		Suffix(returning(softwareColumns)))
}

// NextSoftwareNumber returns the next SW sequence number. Call it while
// holding LockSequence.
func (q *Queries) NextSoftwareNumber(ctx context.Context) (int32, error) {
	return q.nextNumber(ctx, TableSoftware, "software_id_num", nil)
}
