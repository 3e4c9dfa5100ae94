package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatsRepository runs read-only aggregate queries.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountCompletedClaims counts claims redeemed at pickup.
func (r *StatsRepository) CountCompletedClaims(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "count completed claims", `SELECT COUNT(*) FROM food_claims WHERE status = 'claimed'`)
}

// CountActiveClaimants counts distinct users who claimed since the given time.
func (r *StatsRepository) CountActiveClaimants(ctx context.Context, since time.Time) (int64, error) {
	return r.scalar(ctx, "count active claimants", `SELECT COUNT(DISTINCT user_id) FROM food_claims WHERE created_at >= $1`, since)
}

// CountPartnerCanteens counts distinct canteens among active items.
func (r *StatsRepository) CountPartnerCanteens(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "count partner canteens", `SELECT COUNT(DISTINCT canteen_name) FROM food_items WHERE is_active = true`)
}

// SumPostedQuantity totals quantity_available over every item ever posted.
func (r *StatsRepository) SumPostedQuantity(ctx context.Context) (int64, error) {
	return r.scalar(ctx, "sum posted quantity", `SELECT COALESCE(SUM(quantity_available), 0) FROM food_items`)
}

// CountExpiredReservations counts expired claims plus reserved claims past their deadline.
func (r *StatsRepository) CountExpiredReservations(ctx context.Context, now time.Time) (int64, error) {
	return r.scalar(ctx, "count expired reservations",
		`SELECT COUNT(*) FROM food_claims WHERE status = 'expired' OR (status = 'reserved' AND expires_at < $1)`, now)
}

// SumExpiredItemQuantity totals units left on inactive items past their deadline.
func (r *StatsRepository) SumExpiredItemQuantity(ctx context.Context, now time.Time) (int64, error) {
	return r.scalar(ctx, "sum expired item quantity",
		`SELECT COALESCE(SUM(quantity_available), 0) FROM food_items WHERE is_active = false AND available_until < $1`, now)
}

func (r *StatsRepository) scalar(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var value int64
	if err := r.db.GetContext(ctx, &value, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}
