package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	db "github.com/JonMunkholm/inventory/internal/database"
)

const maxCategoryName = 100

// CategoryTree is a category with its subcategories.
type CategoryTree struct {
	db.Category
	Subcategories []db.Subcategory `json:"subcategories"`
}

// CategoryInput is a create or update request. Nil fields are left alone on
// update.
type CategoryInput struct {
	Name         *string `json:"name"`
	DisplayOrder *int32  `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

// Usage reports how many active subscriptions reference a category.
type Usage struct {
	ID                int64 `json:"id"`
	SubscriptionCount int64 `json:"subscription_count"`
}

func cleanCategoryName(name *string) (string, error) {
	if name == nil {
		return "", invalidf("name: required field is empty")
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return "", invalidf("name: required field is empty")
	}
	if len([]rune(n)) > maxCategoryName {
		return "", invalidf("name: must be at most %d characters", maxCategoryName)
	}
	return n, nil
}

// ListCategories returns categories ordered by display_order then name, each
// with its subcategories.
func (s *Service) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryTree, error) {
	q := s.queries()
	cats, err := q.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	subs, err := q.ListSubcategories(ctx, 0, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}

	byCat := make(map[int64][]db.Subcategory)
	for _, sc := range subs {
		byCat[sc.CategoryID] = append(byCat[sc.CategoryID], sc)
	}

	out := make([]CategoryTree, len(cats))
	for i, c := range cats {
		out[i] = CategoryTree{Category: c, Subcategories: byCat[c.ID]}
		if out[i].Subcategories == nil {
			out[i].Subcategories = []db.Subcategory{}
		}
	}
	return out, nil
}

// GetCategory returns one category with all its subcategories.
func (s *Service) GetCategory(ctx context.Context, id int64) (CategoryTree, error) {
	q := s.queries()
	c, err := q.GetCategory(ctx, id)
	if err != nil {
		return CategoryTree{}, notFound(err, "category "+strconv.FormatInt(id, 10))
	}
	subs, err := q.ListSubcategories(ctx, id, true)
	if err != nil {
		return CategoryTree{}, fmt.Errorf("list subcategories: %w", err)
	}
	return CategoryTree{Category: c, Subcategories: subs}, nil
}

// CreateCategory adds a category. A duplicate name is ErrConflict.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (db.Category, error) {
	name, err := cleanCategoryName(in.Name)
	if err != nil {
		return db.Category{}, err
	}

	var created db.Category
	err = s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		created, err = createCategory(ctx, q, name, in.DisplayOrder)
		return err
	})
	if err != nil {
		return db.Category{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionCreate,
		Resource: ResourceCategories,
		RecordID: strconv.FormatInt(created.ID, 10),
		RowData:  created,
	})
	return created, nil
}

func createCategory(ctx context.Context, q *db.Queries, name string, order *int32) (db.Category, error) {
	exists, err := q.CategoryNameExists(ctx, name, 0)
	if err != nil {
		return db.Category{}, fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return db.Category{}, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
	}

	var displayOrder int32
	if order != nil {
		displayOrder = *order
	} else if displayOrder, err = q.NextCategoryOrder(ctx); err != nil {
		return db.Category{}, err
	}

	c, err := q.InsertCategory(ctx, db.InsertCategoryParams{Name: name, DisplayOrder: displayOrder})
	if err != nil {
		if isUniqueViolation(err) {
			return db.Category{}, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
		}
		return db.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// UpdateCategory renames, reorders or (de)activates a category. Renaming
// onto another category's name is ErrConflict.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (db.Category, error) {
	values := make(map[string]any)
	if in.Name != nil {
		name, err := cleanCategoryName(in.Name)
		if err != nil {
			return db.Category{}, err
		}
		values["name"] = name
	}
	if in.DisplayOrder != nil {
		values["display_order"] = *in.DisplayOrder
	}
	if in.IsActive != nil {
		values["is_active"] = *in.IsActive
	}

	var before, after db.Category
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		if before, err = q.GetCategory(ctx, id); err != nil {
			return notFound(err, "category "+strconv.FormatInt(id, 10))
		}
		if name, ok := values["name"].(string); ok {
			exists, err := q.CategoryNameExists(ctx, name, id)
			if err != nil {
				return fmt.Errorf("check category name: %w", err)
			}
			if exists {
				return fmt.Errorf("%w: category %q already exists", ErrConflict, name)
			}
		}
		if len(values) == 0 {
			after = before
			return nil
		}
		after, err = q.UpdateCategory(ctx, id, values)
		return err
	})
	if err != nil {
		return db.Category{}, err
	}

	if changes := diffRecords(before, after); len(changes) > 0 {
		s.logAudit(ctx, AuditParams{
			Action:   ActionUpdate,
			Resource: ResourceCategories,
			RecordID: strconv.FormatInt(id, 10),
			Changes:  changes,
		})
	}
	return after, nil
}

// DeleteCategory deactivates a category. While active subscriptions use it
// the call fails with ErrInUse unless force is set.
func (s *Service) DeleteCategory(ctx context.Context, id int64, force bool) error {
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			return notFound(err, "category "+strconv.FormatInt(id, 10))
		}
		n, err := q.CountSubscriptionsUsing(ctx, "category_id", id)
		if err != nil {
			return err
		}
		if n > 0 && !force {
			return fmt.Errorf("category %w by %d active subscriptions", ErrInUse, n)
		}
		_, err = q.UpdateCategory(ctx, id, map[string]any{"is_active": false})
		return err
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionDelete,
		Resource: ResourceCategories,
		RecordID: strconv.FormatInt(id, 10),
		Reason:   forceReason(force),
	})
	return nil
}

func forceReason(force bool) string {
	if force {
		return "forced while in use"
	}
	return ""
}

// CategoryUsage counts active subscriptions in a category.
func (s *Service) CategoryUsage(ctx context.Context, id int64) (Usage, error) {
	q := s.queries()
	if _, err := q.GetCategory(ctx, id); err != nil {
		return Usage{}, notFound(err, "category "+strconv.FormatInt(id, 10))
	}
	n, err := q.CountSubscriptionsUsing(ctx, "category_id", id)
	if err != nil {
		return Usage{}, err
	}
	return Usage{ID: id, SubscriptionCount: n}, nil
}

// ============================================================================
// Subcategories
// ============================================================================

// ListSubcategories returns the subcategories of one category.
func (s *Service) ListSubcategories(ctx context.Context, categoryID int64, includeInactive bool) ([]db.Subcategory, error) {
	q := s.queries()
	if _, err := q.GetCategory(ctx, categoryID); err != nil {
		return nil, notFound(err, "category "+strconv.FormatInt(categoryID, 10))
	}
	return q.ListSubcategories(ctx, categoryID, includeInactive)
}

// CreateSubcategory adds a subcategory. Names are unique per category.
func (s *Service) CreateSubcategory(ctx context.Context, categoryID int64, in CategoryInput) (db.Subcategory, error) {
	name, err := cleanCategoryName(in.Name)
	if err != nil {
		return db.Subcategory{}, err
	}

	var created db.Subcategory
	err = s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		if _, err := q.GetCategory(ctx, categoryID); err != nil {
			return notFound(err, "category "+strconv.FormatInt(categoryID, 10))
		}
		created, err = createSubcategory(ctx, q, categoryID, name, in.DisplayOrder)
		return err
	})
	if err != nil {
		return db.Subcategory{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionCreate,
		Resource: ResourceCategories,
		RecordID: "sub:" + strconv.FormatInt(created.ID, 10),
		RowData:  created,
	})
	return created, nil
}

func createSubcategory(ctx context.Context, q *db.Queries, categoryID int64, name string, order *int32) (db.Subcategory, error) {
	exists, err := q.SubcategoryNameExists(ctx, categoryID, name, 0)
	if err != nil {
		return db.Subcategory{}, fmt.Errorf("check subcategory name: %w", err)
	}
	if exists {
		return db.Subcategory{}, fmt.Errorf("%w: subcategory %q already exists", ErrConflict, name)
	}

	var displayOrder int32
	if order != nil {
		displayOrder = *order
	} else if displayOrder, err = q.NextSubcategoryOrder(ctx, categoryID); err != nil {
		return db.Subcategory{}, err
	}

	sc, err := q.InsertSubcategory(ctx, db.InsertSubcategoryParams{
		CategoryID:   categoryID,
		Name:         name,
		DisplayOrder: displayOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return db.Subcategory{}, fmt.Errorf("%w: subcategory %q already exists", ErrConflict, name)
		}
		return db.Subcategory{}, fmt.Errorf("insert subcategory: %w", err)
	}
	return sc, nil
}

// UpdateSubcategory renames, reorders or (de)activates a subcategory.
func (s *Service) UpdateSubcategory(ctx context.Context, id int64, in CategoryInput) (db.Subcategory, error) {
	values := make(map[string]any)
	if in.Name != nil {
		name, err := cleanCategoryName(in.Name)
		if err != nil {
			return db.Subcategory{}, err
		}
		values["name"] = name
	}
	if in.DisplayOrder != nil {
		values["display_order"] = *in.DisplayOrder
	}
	if in.IsActive != nil {
		values["is_active"] = *in.IsActive
	}

	var before, after db.Subcategory
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		if before, err = q.GetSubcategory(ctx, id); err != nil {
			return notFound(err, "subcategory "+strconv.FormatInt(id, 10))
		}
		if name, ok := values["name"].(string); ok {
			exists, err := q.SubcategoryNameExists(ctx, before.CategoryID, name, id)
			if err != nil {
				return fmt.Errorf("check subcategory name: %w", err)
			}
			if exists {
				return fmt.Errorf("%w: subcategory %q already exists", ErrConflict, name)
			}
		}
		if len(values) == 0 {
			after = before
			return nil
		}
		after, err = q.UpdateSubcategory(ctx, id, values)
		return err
	})
	if err != nil {
		return db.Subcategory{}, err
	}

	if changes := diffRecords(before, after); len(changes) > 0 {
		s.logAudit(ctx, AuditParams{
			Action:   ActionUpdate,
			Resource: ResourceCategories,
			RecordID: "sub:" + strconv.FormatInt(id, 10),
			Changes:  changes,
		})
	}
	return after, nil
}

// DeleteSubcategory deactivates a subcategory, refusing with ErrInUse while
// active subscriptions use it unless force is set.
func (s *Service) DeleteSubcategory(ctx context.Context, id int64, force bool) error {
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		if _, err := q.GetSubcategory(ctx, id); err != nil {
			return notFound(err, "subcategory "+strconv.FormatInt(id, 10))
		}
		n, err := q.CountSubscriptionsUsing(ctx, "subcategory_id", id)
		if err != nil {
			return err
		}
		if n > 0 && !force {
			return fmt.Errorf("subcategory %w by %d active subscriptions", ErrInUse, n)
		}
		_, err = q.UpdateSubcategory(ctx, id, map[string]any{"is_active": false})
		return err
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionDelete,
		Resource: ResourceCategories,
		RecordID: "sub:" + strconv.FormatInt(id, 10),
		Reason:   forceReason(force),
	})
	return nil
}

// SubcategoryUsage counts active subscriptions in a subcategory.
func (s *Service) SubcategoryUsage(ctx context.Context, id int64) (Usage, error) {
	q := s.queries()
	if _, err := q.GetSubcategory(ctx, id); err != nil {
		return Usage{}, notFound(err, "subcategory "+strconv.FormatInt(id, 10))
	}
	n, err := q.CountSubscriptionsUsing(ctx, "subcategory_id", id)
	if err != nil {
		return Usage{}, err
	}
	return Usage{ID: id, SubscriptionCount: n}, nil
}

// ensureCategoryPath returns the ids of a category and subcategory by name,
// creating or reactivating them as needed. Empty names yield invalid ids.
func ensureCategoryPath(ctx context.Context, q *db.Queries, category, subcategory string) (catID, subID int64, created int, err error) {
	category, subcategory = strings.TrimSpace(category), strings.TrimSpace(subcategory)
	if category == "" {
		return 0, 0, 0, nil
	}

	c, err := q.GetCategoryByName(ctx, category)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if c, err = createCategory(ctx, q, category, nil); err != nil {
			return 0, 0, 0, err
		}
		created++
	case err != nil:
		return 0, 0, 0, fmt.Errorf("get category %q: %w", category, err)
	case !c.IsActive:
		if c, err = q.UpdateCategory(ctx, c.ID, map[string]any{"is_active": true}); err != nil {
			return 0, 0, 0, err
		}
	}
	if subcategory == "" {
		return c.ID, 0, created, nil
	}

	sc, err := q.GetSubcategoryByName(ctx, c.ID, subcategory)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if sc, err = createSubcategory(ctx, q, c.ID, subcategory, nil); err != nil {
			return 0, 0, created, err
		}
		created++
	case err != nil:
		return 0, 0, created, fmt.Errorf("get subcategory %q: %w", subcategory, err)
	case !sc.IsActive:
		if sc, err = q.UpdateSubcategory(ctx, sc.ID, map[string]any{"is_active": true}); err != nil {
			return 0, 0, created, err
		}
	}
	return c.ID, sc.ID, created, nil
}

// ============================================================================
// Seeding
// ============================================================================

// CategorySeed is the YAML layout of a category seed file:
//
//	categories:
//	  - name: Software Tools
//	    order: 1
//	    subcategories: [Design, Engineering]
type CategorySeed struct {
	Categories []SeedCategory `yaml:"categories"`
}

// SeedCategory is one category of a seed file.
type SeedCategory struct {
	Name          string   `yaml:"name"`
	Order         *int32   `yaml:"order"`
	Subcategories []string `yaml:"subcategories"`
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Categories    int `json:"categories"`
	Subcategories int `json:"subcategories"`
}

// ParseCategorySeed decodes and checks a YAML seed file.
func ParseCategorySeed(r io.Reader) (CategorySeed, error) {
	var seed CategorySeed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return seed, fmt.Errorf("parse category seed: %w", err)
	}
	seen := make(map[string]bool)
	for i, c := range seed.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return seed, fmt.Errorf("parse category seed: category %d has no name", i+1)
		}
		if seen[strings.ToLower(name)] {
			return seed, fmt.Errorf("parse category seed: duplicate category %q", name)
		}
		seen[strings.ToLower(name)] = true
	}
	return seed, nil
}

// SeedCategories upserts every category and subcategory of seed in one
// transaction. Existing entries are reactivated, never duplicated.
func (s *Service) SeedCategories(ctx context.Context, seed CategorySeed) (SeedResult, error) {
	var res SeedResult
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		res = SeedResult{}
		for _, c := range seed.Categories {
			name := strings.TrimSpace(c.Name)
			cat, err := q.GetCategoryByName(ctx, name)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				if cat, err = createCategory(ctx, q, name, c.Order); err != nil {
					return err
				}
				res.Categories++
			case err != nil:
				return fmt.Errorf("get category %q: %w", name, err)
			default:
				values := map[string]any{"is_active": true}
				if c.Order != nil {
					values["display_order"] = *c.Order
				}
				if _, err := q.UpdateCategory(ctx, cat.ID, values); err != nil {
					return err
				}
			}

			for _, subName := range c.Subcategories {
				_, _, created, err := ensureCategoryPath(ctx, q, name, subName)
				if err != nil {
					return err
				}
				res.Subcategories += created
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionImport,
		Resource: ResourceCategories,
		Reason:   fmt.Sprintf("seeded %d categories, %d subcategories", res.Categories, res.Subcategories),
	})
	return res, nil
}
