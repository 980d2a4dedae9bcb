package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// findSoftware resolves a software ID (SW-0001) or, for restore links, a
// numeric database id. Deleted rows are returned.
func findSoftware(ctx context.Context, q *db.Queries, identifier string) (db.Software, error) {
	identifier = strings.TrimSpace(identifier)
	sw, err := q.GetSoftwareBySoftwareID(ctx, identifier)
	if err == nil {
		return sw, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Software{}, fmt.Errorf("get software %s: %w", identifier, err)
	}
	if id, perr := strconv.ParseInt(identifier, 10, 64); perr == nil {
		sw, err = q.GetSoftware(ctx, id)
	}
	if err != nil {
		return db.Software{}, notFound(err, "software "+identifier)
	}
	return sw, nil
}

func findActiveSoftware(ctx context.Context, q *db.Queries, identifier string) (db.Software, error) {
	sw, err := findSoftware(ctx, q, identifier)
	if err != nil {
		return sw, err
	}
	if sw.IsDeleted {
		return db.Software{}, fmt.Errorf("software %s %w", identifier, ErrNotFound)
	}
	return sw, nil
}

// ListSoftware returns software matching lq.
func (s *Service) ListSoftware(ctx context.Context, lq ListQuery) ([]db.Software, error) {
	items, err := s.queries().ListSoftware(ctx, lq.Params(mustDef(ResourceSoftware)))
	if err != nil {
		return nil, listError("software", err)
	}
	return items, nil
}

// ListDeletedSoftware returns soft-deleted software, most recently deleted
// first.
func (s *Service) ListDeletedSoftware(ctx context.Context) ([]db.Software, error) {
	items, err := s.queries().ListSoftware(ctx, db.ListParams{
		Where:   ListQuery{DeletedOnly: true}.Where(mustDef(ResourceSoftware)),
		OrderBy: []string{"deleted_at DESC NULLS LAST", "id DESC"},
	})
	if err != nil {
		return nil, fmt.Errorf("list deleted software: %w", err)
	}
	return items, nil
}

// GetSoftware returns an active record by software ID.
func (s *Service) GetSoftware(ctx context.Context, identifier string) (db.Software, error) {
	return findActiveSoftware(ctx, s.queries(), identifier)
}

func insertSoftware(ctx context.Context, q *db.Queries, values map[string]any) (db.Software, error) {
	if err := q.LockSequence(ctx, "software"); err != nil {
		return db.Software{}, fmt.Errorf("lock software sequence: %w", err)
	}
	n, err := q.NextSoftwareNumber(ctx)
	if err != nil {
		return db.Software{}, err
	}
	values["software_id"] = FormatPublicID(mustDef(ResourceSoftware).Info.IDPrefix, n)
	values["software_id_num"] = n

	sw, err := q.InsertSoftware(ctx, values)
	if err != nil {
		if isUniqueViolation(err) {
			return db.Software{}, fmt.Errorf("%w: software id already exists", ErrConflict)
		}
		return db.Software{}, fmt.Errorf("insert software: %w", err)
	}
	return sw, nil
}

// CreateSoftware validates payload and inserts a new license record.
func (s *Service) CreateSoftware(ctx context.Context, payload map[string]any) (db.Software, error) {
	values, verrs := mustDef(ResourceSoftware).BuildValues(payload, WriteCreate)
	if err := verrs.Err(); err != nil {
		return db.Software{}, err
	}

	var created db.Software
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		created, err = insertSoftware(ctx, q, values)
		return err
	})
	if err != nil {
		return db.Software{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionCreate,
		Resource: ResourceSoftware,
		RecordID: created.SoftwareID,
		RowData:  created,
	})
	return created, nil
}

// UpdateSoftware applies a partial update to an active record.
func (s *Service) UpdateSoftware(ctx context.Context, identifier string, payload map[string]any) (db.Software, error) {
	values, verrs := mustDef(ResourceSoftware).BuildValues(payload, WriteUpdate)
	if err := verrs.Err(); err != nil {
		return db.Software{}, err
	}

	var before, after db.Software
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		if before, err = findActiveSoftware(ctx, q, identifier); err != nil {
			return err
		}
		if len(values) == 0 {
			after = before
			return nil
		}
		after, err = q.UpdateSoftware(ctx, before.ID, values)
		if err != nil {
			return fmt.Errorf("update software: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.Software{}, err
	}

	if changes := diffRecords(before, after); len(changes) > 0 {
		s.logAudit(ctx, AuditParams{
			Action:   ActionUpdate,
			Resource: ResourceSoftware,
			RecordID: after.SoftwareID,
			Changes:  changes,
		})
	}
	return after, nil
}

// DeleteSoftware soft-deletes an active record.
func (s *Service) DeleteSoftware(ctx context.Context, identifier string) error {
	var deleted db.Software
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		sw, err := findActiveSoftware(ctx, q, identifier)
		if err != nil {
			return err
		}
		deleted, err = q.SetSoftwareDeleted(ctx, sw.ID, true)
		return err
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionDelete,
		Resource: ResourceSoftware,
		RecordID: deleted.SoftwareID,
		RowData:  deleted,
	})
	return nil
}

// RestoreSoftware clears the soft-delete flag of a deleted record.
func (s *Service) RestoreSoftware(ctx context.Context, identifier string) (db.Software, error) {
	var restored db.Software
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		sw, err := findSoftware(ctx, q, identifier)
		if err != nil {
			return err
		}
		if !sw.IsDeleted {
			return fmt.Errorf("software %s: %w", sw.SoftwareID, ErrNotDeleted)
		}
		restored, err = q.SetSoftwareDeleted(ctx, sw.ID, false)
		return err
	})
	if err != nil {
		return db.Software{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionRestore,
		Resource: ResourceSoftware,
		RecordID: restored.SoftwareID,
	})
	return restored, nil
}
