package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

var (
	categoryColumns    = columnsOf[Category]()
	subcategoryColumns = columnsOf[Subcategory]()
)

func activeOnly(includeInactive bool) sq.Sqlizer {
	if includeInactive {
		return sq.Expr("TRUE")
	}
	return sq.Eq{"is_active": true}
}

func (q *Queries) ListCategories(ctx context.Context, includeInactive bool) ([]Category, error) {
	return collectAll[Category](ctx, q, q.sb.Select(categoryColumns...).From(TableCategories).
		Where(activeOnly(includeInactive)).
		OrderBy("display_order", "name"))
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	return collectOne[Category](ctx, q, q.sb.Select(categoryColumns...).From(TableCategories).Where(sq.Eq{"id": id}))
}

func (q *Queries) GetCategoryByName(ctx context.Context, name string) (Category, error) {
	return collectOne[Category](ctx, q, q.sb.Select(categoryColumns...).From(TableCategories).Where(sq.Eq{"name": name}))
}

// CategoryNameExists reports whether another category already uses name.
// excludeID of 0 excludes nothing.
func (q *Queries) CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := q.queryRow(ctx, q.sb.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM categories WHERE name = ? AND id <> ?)", name, excludeID,
	))).Scan(&exists)
	return exists, err
}

type InsertCategoryParams struct {
	Name         string
	DisplayOrder int32
}

func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) (Category, error) {
	return collectOne[Category](ctx, q, q.sb.Insert(TableCategories).
		Columns("name", "display_order").
		Values(arg.Name, arg.DisplayOrder).
		Suffix(returning(categoryColumns)))
}

func (q *Queries) UpdateCategory(ctx context.Context, id int64, values map[string]any) (Category, error) {
	return collectOne[Category](ctx, q, q.sb.Update(TableCategories).SetMap(values).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning(categoryColumns)))
}

// NextCategoryOrder returns MAX(display_order)+1 across categories.
func (q *Queries) NextCategoryOrder(ctx context.Context) (int32, error) {
	return q.nextNumber(ctx, TableCategories, "display_order", nil)
}

// ListSubcategories returns subcategories of one category, or of every
// category when categoryID is 0.
func (q *Queries) ListSubcategories(ctx context.Context, categoryID int64, includeInactive bool) ([]Subcategory, error) {
	where := sq.And{activeOnly(includeInactive)}
	if categoryID != 0 {
		where = append(where, sq.Eq{"category_id": categoryID})
	}
	return collectAll[Subcategory](ctx, q, q.sb.Select(subcategoryColumns...).From(TableSubcategories).
		Where(where).
		OrderBy("category_id", "display_order", "name"))
}

func (q *Queries) GetSubcategory(ctx context.Context, id int64) (Subcategory, error) {
	return collectOne[Subcategory](ctx, q, q.sb.Select(subcategoryColumns...).From(TableSubcategories).Where(sq.Eq{"id": id}))
}

func (q *Queries) GetSubcategoryByName(ctx context.Context, categoryID int64, name string) (Subcategory, error) {
	return collectOne[Subcategory](ctx, q, q.sb.Select(subcategoryColumns...).From(TableSubcategories).
		Where(sq.Eq{"category_id": categoryID, "name": name}))
}

// SubcategoryNameExists reports whether another subcategory of categoryID
// already uses name. excludeID of 0 excludes nothing.
func (q *Queries) SubcategoryNameExists(ctx context.Context, categoryID int64, name string, excludeID int64) (bool, error) {
	var exists bool
	err := q.queryRow(ctx, q.sb.Select().Column(sq.Expr(
		"EXISTS (SELECT 1 FROM subcategories WHERE category_id = ? AND name = ? AND id <> ?)",
		categoryID, name, excludeID,
	))).Scan(&exists)
	return exists, err
}

type InsertSubcategoryParams struct {
	CategoryID   int64
	Name         string
	DisplayOrder int32
}

func (q *Queries) InsertSubcategory(ctx context.Context, arg InsertSubcategoryParams) (Subcategory, error) {
	return collectOne[Subcategory](ctx, q, q.sb.Insert(TableSubcategories).
		Columns("category_id", "name", "display_order").
		Values(arg.CategoryID, arg.Name, arg.DisplayOrder).
		Suffix(returning(subcategoryColumns)))
}

func (q *Queries) UpdateSubcategory(ctx context.Context, id int64, values map[string]any) (Subcategory, error) {
	return collectOne[Subcategory](ctx, q, q.sb.Update(TableSubcategories).SetMap(values).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning(subcategoryColumns)))
}

// NextSubcategoryOrder returns MAX(display_order)+1 within a category.
func (q *Queries) NextSubcategoryOrder(ctx context.Context, categoryID int64) (int32, error) {
	return q.nextNumber(ctx, TableSubcategories, "display_order", sq.Eq{"category_id": categoryID})
}
