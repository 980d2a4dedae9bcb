package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// SubscriptionView is a subscription as the API returns it. Detail views
// carry the plaintext password; list views only the mask.
type SubscriptionView struct {
	db.Subscription
	Password         *string `json:"password,omitempty"`
	PasswordMasked   *string `json:"password_masked"`
	RenewalStatus    *string `json:"renewal_status"`
	DaysUntilRenewal *int    `json:"days_until_renewal"`
}

// subscriptionView decorates a row with the password and renewal fields.
func (s *Service) subscriptionView(sub db.Subscription, detail bool) SubscriptionView {
	v := SubscriptionView{Subscription: sub}
	v.RenewalStatus, v.DaysUntilRenewal = RenewalStatus(sub.RenewalDate, s.today(), s.opts.Renewal)

	if !sub.Password.Valid || sub.Password.String == "" {
		return v
	}
	plain, err := RevealPassword(sub.Password.String)
	if err != nil {
		slog.Warn("stored password unreadable", "subscription_id", sub.SubscriptionID, "error", err)
		return v
	}
	masked := MaskPassword(plain, s.opts.PasswordVisible)
	v.PasswordMasked = &masked
	if detail {
		v.Password = &plain
	}
	return v
}

func findSubscription(ctx context.Context, q *db.Queries, identifier string) (db.Subscription, error) {
	identifier = strings.TrimSpace(identifier)
	sub, err := q.GetSubscriptionBySubscriptionID(ctx, identifier)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Subscription{}, fmt.Errorf("get subscription %s: %w", identifier, err)
	}
	if id, perr := strconv.ParseInt(identifier, 10, 64); perr == nil {
		sub, err = q.GetSubscription(ctx, id)
	}
	if err != nil {
		return db.Subscription{}, notFound(err, "subscription "+identifier)
	}
	return sub, nil
}

func findActiveSubscription(ctx context.Context, q *db.Queries, identifier string) (db.Subscription, error) {
	sub, err := findSubscription(ctx, q, identifier)
	if err != nil {
		return sub, err
	}
	if sub.IsDeleted {
		return db.Subscription{}, fmt.Errorf("subscription %s %w", identifier, ErrNotFound)
	}
	return sub, nil
}

// ListSubscriptions returns subscriptions matching lq with masked passwords.
func (s *Service) ListSubscriptions(ctx context.Context, lq ListQuery) ([]SubscriptionView, error) {
	rows, err := s.queries().ListSubscriptions(ctx, lq.Params(mustDef(ResourceSubscriptions)))
	if err != nil {
		return nil, listError("subscriptions", err)
	}
	return s.subscriptionViews(rows), nil
}

// ListDeletedSubscriptions returns soft-deleted subscriptions, most recently
// deleted first.
func (s *Service) ListDeletedSubscriptions(ctx context.Context) ([]SubscriptionView, error) {
	rows, err := s.queries().ListSubscriptions(ctx, db.ListParams{
		Where:   ListQuery{DeletedOnly: true}.Where(mustDef(ResourceSubscriptions)),
		OrderBy: []string{"deleted_at DESC NULLS LAST", "id DESC"},
	})
	if err != nil {
		return nil, fmt.Errorf("list deleted subscriptions: %w", err)
	}
	return s.subscriptionViews(rows), nil
}

func (s *Service) subscriptionViews(rows []db.Subscription) []SubscriptionView {
	out := make([]SubscriptionView, len(rows))
	for i, r := range rows {
		out[i] = s.subscriptionView(r, false)
	}
	return out
}

// GetSubscription returns an active subscription with its plaintext
// password.
func (s *Service) GetSubscription(ctx context.Context, identifier string) (SubscriptionView, error) {
	sub, err := findActiveSubscription(ctx, s.queries(), identifier)
	if err != nil {
		return SubscriptionView{}, err
	}
	return s.subscriptionView(sub, true), nil
}

// SubscriptionOwners returns the distinct owners of active subscriptions.
func (s *Service) SubscriptionOwners(ctx context.Context) ([]string, error) {
	return s.queries().DistinctOwners(ctx)
}

// obfuscateValues replaces a plaintext password value with its stored form.
func obfuscateValues(values map[string]any) {
	if pw, ok := values["password"].(pgtype.Text); ok && pw.Valid {
		values["password"] = ToPgText(ObfuscatePassword(pw.String))
	}
}

func int8Value(values map[string]any, col string) (pgtype.Int8, bool) {
	v, ok := values[col]
	if !ok {
		return pgtype.Int8{}, false
	}
	i, _ := v.(pgtype.Int4)
	return pgtype.Int8{Int64: int64(i.Int32), Valid: i.Valid}, true
}

// checkCategoryRefs verifies that referenced categories exist and that the
// subcategory belongs to the effective category. current is nil on create.
func checkCategoryRefs(ctx context.Context, q *db.Queries, values map[string]any, current *db.Subscription) error {
	cat, catSet := int8Value(values, "category_id")
	sub, subSet := int8Value(values, "subcategory_id")
	if !catSet && !subSet {
		return nil
	}
	if !catSet && current != nil {
		cat = current.CategoryID
	}
	if !subSet && current != nil {
		sub = current.SubcategoryID
	}

	if cat.Valid {
		if _, err := q.GetCategory(ctx, cat.Int64); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return invalidf("category %d does not exist", cat.Int64)
			}
			return fmt.Errorf("get category: %w", err)
		}
	}
	if sub.Valid {
		sc, err := q.GetSubcategory(ctx, sub.Int64)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return invalidf("subcategory %d does not exist", sub.Int64)
			}
			return fmt.Errorf("get subcategory: %w", err)
		}
		if !cat.Valid || sc.CategoryID != cat.Int64 {
			return invalidf("subcategory %d does not belong to category %d", sub.Int64, cat.Int64)
		}
	}
	return nil
}

func insertSubscription(ctx context.Context, q *db.Queries, values map[string]any) (db.Subscription, error) {
	if st, ok := values["status"].(pgtype.Text); !ok || !st.Valid {
		values["status"] = "Active"
	}
	obfuscateValues(values)

	if err := q.LockSequence(ctx, "subscriptions"); err != nil {
		return db.Subscription{}, fmt.Errorf("lock subscription sequence: %w", err)
	}
	n, err := q.NextSubscriptionNumber(ctx)
	if err != nil {
		return db.Subscription{}, err
	}
	values["subscription_id"] = FormatPublicID(mustDef(ResourceSubscriptions).Info.IDPrefix, n)
	values["subscription_id_num"] = n

	sub, err := q.InsertSubscription(ctx, values)
	if err != nil {
		if isUniqueViolation(err) {
			return db.Subscription{}, fmt.Errorf("%w: subscription id already exists", ErrConflict)
		}
		return db.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	return sub, nil
}

// CreateSubscription validates payload and inserts a new subscription.
func (s *Service) CreateSubscription(ctx context.Context, payload map[string]any) (SubscriptionView, error) {
	values, verrs := mustDef(ResourceSubscriptions).BuildValues(payload, WriteCreate)
	if err := verrs.Err(); err != nil {
		return SubscriptionView{}, err
	}

	var created db.Subscription
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		if err := checkCategoryRefs(ctx, q, values, nil); err != nil {
			return err
		}
		var err error
		created, err = insertSubscription(ctx, q, values)
		return err
	})
	if err != nil {
		return SubscriptionView{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionCreate,
		Resource: ResourceSubscriptions,
		RecordID: created.SubscriptionID,
		RowData:  created,
	})
	return s.subscriptionView(created, true), nil
}

func updateSubscription(ctx context.Context, q *db.Queries, current db.Subscription, values map[string]any) (db.Subscription, error) {
	if st, ok := values["status"].(pgtype.Text); ok && !st.Valid {
		delete(values, "status")
	}
	if len(values) == 0 {
		return current, nil
	}
	if err := checkCategoryRefs(ctx, q, values, &current); err != nil {
		return db.Subscription{}, err
	}
	obfuscateValues(values)

	updated, err := q.UpdateSubscription(ctx, current.ID, values)
	if err != nil {
		return db.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}
	return updated, nil
}

// UpdateSubscription applies a partial update to an active subscription.
func (s *Service) UpdateSubscription(ctx context.Context, identifier string, payload map[string]any) (SubscriptionView, error) {
	values, verrs := mustDef(ResourceSubscriptions).BuildValues(payload, WriteUpdate)
	if err := verrs.Err(); err != nil {
		return SubscriptionView{}, err
	}
	if err := checkStatusKept(values); err != nil {
		return SubscriptionView{}, err
	}

	var before, after db.Subscription
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		var err error
		if before, err = findActiveSubscription(ctx, q, identifier); err != nil {
			return err
		}
		after, err = updateSubscription(ctx, q, before, values)
		return err
	})
	if err != nil {
		return SubscriptionView{}, err
	}

	// Password is excluded from JSON, so the diff never carries it.
	if changes := diffRecords(before, after); len(changes) > 0 {
		s.logAudit(ctx, AuditParams{
			Action:   ActionUpdate,
			Resource: ResourceSubscriptions,
			RecordID: after.SubscriptionID,
			Changes:  changes,
		})
	}
	return s.subscriptionView(after, true), nil
}

// DeleteSubscription soft-deletes an active subscription.
func (s *Service) DeleteSubscription(ctx context.Context, identifier string) error {
	var deleted db.Subscription
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		sub, err := findActiveSubscription(ctx, q, identifier)
		if err != nil {
			return err
		}
		deleted, err = q.SetSubscriptionDeleted(ctx, sub.ID, true)
		return err
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionDelete,
		Resource: ResourceSubscriptions,
		RecordID: deleted.SubscriptionID,
		RowData:  deleted,
	})
	return nil
}

// RestoreSubscription clears the soft-delete flag of a deleted subscription.
func (s *Service) RestoreSubscription(ctx context.Context, identifier string) (SubscriptionView, error) {
	var restored db.Subscription
	err := s.withTx(ctx, func(q *db.Queries, _ pgx.Tx) error {
		sub, err := findSubscription(ctx, q, identifier)
		if err != nil {
			return err
		}
		if !sub.IsDeleted {
			return fmt.Errorf("subscription %s: %w", sub.SubscriptionID, ErrNotDeleted)
		}
		restored, err = q.SetSubscriptionDeleted(ctx, sub.ID, false)
		return err
	})
	if err != nil {
		return SubscriptionView{}, err
	}

	s.logAudit(ctx, AuditParams{
		Action:   ActionRestore,
		Resource: ResourceSubscriptions,
		RecordID: restored.SubscriptionID,
	})
	return s.subscriptionView(restored, true), nil
}
