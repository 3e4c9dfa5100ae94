package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-meals-api/internal/models"
	"github.com/noah-isme/campus-meals-api/pkg/database"
)

// Constraint names declared in migrations/0001_init.sql.
const (
	ConstraintClaimCodeUnique  = "food_claims_claim_code_key"
	ConstraintClaimOutstanding = "food_claims_user_item_outstanding_idx"
)

const claimColumns = `fc.id, fc.user_id, fc.food_item_id, fc.quantity_claimed, fc.claim_code, fc.status,
	fc.expires_at, fc.claimed_at, fc.cancelled_at, fc.created_at`

const claimDetailSelect = `
SELECT ` + claimColumns + `,
	u.email AS user_email,
	u.full_name AS user_full_name,
	fi.name AS item_name,
	fi.canteen_name,
	fi.canteen_location,
	fi.available_until,
	fi.created_by AS item_created_by
FROM food_claims fc
JOIN food_items fi ON fi.id = fc.food_item_id
LEFT JOIN users u ON u.id = fc.user_id`

// ClaimScope restricts bulk expiry to one item or one user. The zero value
// covers every claim.
type ClaimScope struct {
	FoodItemID string
	UserID     string
}

// FoodClaimRepository persists claims.
type FoodClaimRepository struct {
	db *sqlx.DB
}

// NewFoodClaimRepository constructs the repository.
func NewFoodClaimRepository(db *sqlx.DB) *FoodClaimRepository {
	return &FoodClaimRepository{db: db}
}

// SumReserved totals units held by reserved claims on the item.
func (r *FoodClaimRepository) SumReserved(ctx context.Context, foodItemID string) (int, error) {
	const query = `SELECT COALESCE(SUM(quantity_claimed), 0) FROM food_claims WHERE food_item_id = $1 AND status = 'reserved'`
	var total int
	if err := database.Conn(ctx, r.db).GetContext(ctx, &total, query, foodItemID); err != nil {
		return 0, fmt.Errorf("sum reserved claims: %w", err)
	}
	return total, nil
}

// HasOutstanding reports whether the user holds a reserved or claimed claim on the item.
func (r *FoodClaimRepository) HasOutstanding(ctx context.Context, userID, foodItemID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM food_claims
	WHERE user_id = $1 AND food_item_id = $2 AND status IN ('reserved', 'claimed')
)`
	var exists bool
	if err := database.Conn(ctx, r.db).GetContext(ctx, &exists, query, userID, foodItemID); err != nil {
		return false, fmt.Errorf("check outstanding claim: %w", err)
	}
	return exists, nil
}

// Insert stores a new claim. The driver error stays in the chain so callers
// can inspect the violated constraint.
func (r *FoodClaimRepository) Insert(ctx context.Context, claim *models.FoodClaim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO food_claims (id, user_id, food_item_id, quantity_claimed, claim_code, status, expires_at, created_at)
VALUES (:id, :user_id, :food_item_id, :quantity_claimed, :claim_code, :status, :expires_at, :created_at)`
	if _, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, claim); err != nil {
		return fmt.Errorf("insert food claim: %w", err)
	}
	return nil
}

// FindByIDForUpdate loads a claim and locks its row.
func (r *FoodClaimRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.FoodClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM food_claims fc WHERE fc.id = $1 FOR UPDATE`
	var claim models.FoodClaim
	if err := database.Conn(ctx, r.db).GetContext(ctx, &claim, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock food claim: %w", err)
	}
	return &claim, nil
}

// FindDetailByID returns the claim joined with claimant and item.
func (r *FoodClaimRepository) FindDetailByID(ctx context.Context, id string) (*models.FoodClaimDetail, error) {
	return r.findDetail(ctx, "fc.id = $1", id)
}

// FindDetailByCode looks a claim up by its redemption code.
func (r *FoodClaimRepository) FindDetailByCode(ctx context.Context, code string) (*models.FoodClaimDetail, error) {
	return r.findDetail(ctx, "fc.claim_code = $1", code)
}

func (r *FoodClaimRepository) findDetail(ctx context.Context, where string, arg interface{}) (*models.FoodClaimDetail, error) {
	query := claimDetailSelect + "\nWHERE " + where
	var detail models.FoodClaimDetail
	if err := database.Conn(ctx, r.db).GetContext(ctx, &detail, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get food claim detail: %w", err)
	}
	return &detail, nil
}

// Transition moves a reserved claim into status. It reports false when the
// claim was no longer reserved.
func (r *FoodClaimRepository) Transition(ctx context.Context, id string, status models.ClaimStatus, at time.Time) (bool, error) {
	var query string
	args := []interface{}{id}
	switch status {
	case models.ClaimStatusClaimed:
		query = `UPDATE food_claims SET status = 'claimed', claimed_at = $2 WHERE id = $1 AND status = 'reserved'`
		args = append(args, at)
	case models.ClaimStatusCancelled:
		query = `UPDATE food_claims SET status = 'cancelled', cancelled_at = $2 WHERE id = $1 AND status = 'reserved'`
		args = append(args, at)
	case models.ClaimStatusExpired:
		query = `UPDATE food_claims SET status = 'expired' WHERE id = $1 AND status = 'reserved'`
	case models.ClaimStatusReserved:
		return false, fmt.Errorf("transition food claim: cannot move into %q", status)
	default:
		return false, fmt.Errorf("transition food claim: unknown status %q", status)
	}
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition food claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition food claim: %w", err)
	}
	return affected == 1, nil
}

// ExpireStale marks reserved claims past their deadline as expired.
func (r *FoodClaimRepository) ExpireStale(ctx context.Context, scope ClaimScope, now time.Time) (int64, error) {
	query := strings.Builder{}
	query.WriteString(`UPDATE food_claims SET status = 'expired' WHERE status = 'reserved' AND expires_at < $1`)
	args := []interface{}{now}
	if scope.FoodItemID != "" {
		args = append(args, scope.FoodItemID)
		fmt.Fprintf(&query, " AND food_item_id = $%d", len(args))
	}
	if scope.UserID != "" {
		args = append(args, scope.UserID)
		fmt.Fprintf(&query, " AND user_id = $%d", len(args))
	}
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("expire stale claims: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire stale claims: %w", err)
	}
	return affected, nil
}

// ListByUser returns the user's claims, newest first.
func (r *FoodClaimRepository) ListByUser(ctx context.Context, userID string) ([]models.FoodClaimDetail, error) {
	query := claimDetailSelect + "\nWHERE fc.user_id = $1\nORDER BY fc.created_at DESC"
	var claims []models.FoodClaimDetail
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &claims, query, userID); err != nil {
		return nil, fmt.Errorf("list claims by user: %w", err)
	}
	return claims, nil
}

// ListReserved returns reservations still awaiting pickup.
func (r *FoodClaimRepository) ListReserved(ctx context.Context, now time.Time) ([]models.FoodClaimDetail, error) {
	query := claimDetailSelect + "\nWHERE fc.status = 'reserved' AND fc.expires_at >= $1\nORDER BY fc.expires_at ASC"
	var claims []models.FoodClaimDetail
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &claims, query, now); err != nil {
		return nil, fmt.Errorf("list reserved claims: %w", err)
	}
	return claims, nil
}
