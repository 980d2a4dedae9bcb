package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var subscriptionColumns = columnsOf[Subscription]()

// Subscriptions are written to the base table and read back through the
// subscription_details view so responses carry category names.

func (q *Queries) ListSubscriptions(ctx context.Context, p ListParams) ([]Subscription, error) {
	return collectAll[Subscription](ctx, q, p.apply(q.sb.Select(subscriptionColumns...).From(viewSubscriptions)))
}

func (q *Queries) GetSubscription(ctx context.Context, id int64) (Subscription, error) {
	return collectOne[Subscription](ctx, q, q.sb.Select(subscriptionColumns...).From(viewSubscriptions).Where(sq.Eq{"id": id}))
}

// GetSubscriptionBySubscriptionID matches SUB-NNNN case-insensitively,
// deleted or not.
func (q *Queries) GetSubscriptionBySubscriptionID(ctx context.Context, subscriptionID string) (Subscription, error) {
	return collectOne[Subscription](ctx, q, q.sb.Select(subscriptionColumns...).From(viewSubscriptions).
		Where("upper(subscription_id) = upper(?)", subscriptionID))
}

func (q *Queries) InsertSubscription(ctx context.Context, values map[string]any) (Subscription, error) {
	var id int64
	if err := q.queryRow(ctx, q.sb.Insert(TableSubscriptions).SetMap(values).Suffix("RETURNING id")).Scan(&id); err != nil {
		return Subscription{}, err
	}
	return q.GetSubscription(ctx, id)
}

func (q *Queries) UpdateSubscription(ctx context.Context, id int64, values map[string]any) (Subscription, error) {
	var updated int64
	err := q.queryRow(ctx, q.sb.Update(TableSubscriptions).SetMap(values).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id")).Scan(&updated)
	if err != nil {
		return Subscription{}, err
	}
	return q.GetSubscription(ctx, updated)
}

func (q *Queries) SetSubscriptionDeleted(ctx context.Context, id int64, deleted bool) (Subscription, error) {
	var updated int64
	if err := q.queryRow(ctx, softDelete(q.sb, TableSubscriptions, id, deleted).Suffix("RETURNING id")).Scan(&updated); err != nil {
		return Subscription{}, err
	}
	return q.GetSubscription(ctx, updated)
}

// NextSubscriptionNumber returns the next SUB sequence number. Call it while
// holding LockSequence.
func (q *Queries) NextSubscriptionNumber(ctx context.Context) (int32, error) {
	return q.nextNumber(ctx, TableSubscriptions, "subscription_id_num", nil)
}

// DistinctOwners returns non-empty ccm_owner values of active subscriptions,
// sorted.
func (q *Queries) DistinctOwners(ctx context.Context) ([]string, error) {
	rows, err := q.query(ctx, q.sb.Select("DISTINCT ccm_owner").From(TableSubscriptions).
		Where(sq.And{
			sq.Eq{"is_deleted": false},
			sq.NotEq{"ccm_owner": nil},
			sq.NotEq{"ccm_owner": ""},
		}).
		OrderBy("ccm_owner"))
	if err != nil {
		return nil, fmt.Errorf("distinct owners: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// CountSubscriptionsUsing counts active subscriptions referencing a category
// or subcategory column value.
func (q *Queries) CountSubscriptionsUsing(ctx context.Context, column string, id int64) (int64, error) {
	if column != "category_id" && column != "subcategory_id" {
		return 0, fmt.Errorf("count subscriptions: unsupported column %q", column)
	}
	var n int64
	err := q.queryRow(ctx, q.sb.Select("COUNT(*)").From(TableSubscriptions).
		Where(sq.Eq{column: id, "is_deleted": false})).Scan(&n)
	return n, err
}
