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

const foodItemColumns = `fi.id, fi.name, fi.description, fi.canteen_name, fi.canteen_location, fi.image_url,
	fi.quantity_available, fi.available_until, fi.is_active, fi.created_by, fi.created_at, fi.updated_at, fi.archived_at`

// FoodItemRepository persists posted food items. Calls made with a context
// carrying a transaction run inside it.
type FoodItemRepository struct {
	db *sqlx.DB
}

// NewFoodItemRepository constructs the repository.
func NewFoodItemRepository(db *sqlx.DB) *FoodItemRepository {
	return &FoodItemRepository{db: db}
}

// FindByID returns the item or nil when it does not exist.
func (r *FoodItemRepository) FindByID(ctx context.Context, id string) (*models.FoodItem, error) {
	return r.find(ctx, id, "")
}

// FindByIDForUpdate loads the item and locks its row until the surrounding
// transaction ends.
func (r *FoodItemRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.FoodItem, error) {
	return r.find(ctx, id, " FOR UPDATE")
}

func (r *FoodItemRepository) find(ctx context.Context, id, suffix string) (*models.FoodItem, error) {
	query := `SELECT ` + foodItemColumns + ` FROM food_items fi WHERE fi.id = $1` + suffix
	var item models.FoodItem
	if err := database.Conn(ctx, r.db).GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get food item: %w", err)
	}
	return &item, nil
}

// Create inserts a new item, assigning id and timestamps when empty.
func (r *FoodItemRepository) Create(ctx context.Context, item *models.FoodItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt
	const query = `
INSERT INTO food_items (id, name, description, canteen_name, canteen_location, image_url,
	quantity_available, available_until, is_active, created_by, created_at, updated_at)
VALUES (:id, :name, :description, :canteen_name, :canteen_location, :image_url,
	:quantity_available, :available_until, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create food item: %w", err)
	}
	return nil
}

// UpdateDetails applies descriptive changes. Nil fields are left untouched.
func (r *FoodItemRepository) UpdateDetails(ctx context.Context, id string, changes models.FoodItemChanges, now time.Time) error {
	sets := []string{}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Name != nil {
		add("name", *changes.Name)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.CanteenName != nil {
		add("canteen_name", *changes.CanteenName)
	}
	if changes.CanteenLocation != nil {
		add("canteen_location", *changes.CanteenLocation)
	}
	if changes.ImageURL != nil {
		add("image_url", *changes.ImageURL)
	}
	if changes.AvailableUntil != nil {
		add("available_until", changes.AvailableUntil.UTC())
	}
	add("updated_at", now)

	query := fmt.Sprintf("UPDATE food_items SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update food item: %w", err)
	}
	return nil
}

// SetQuantity overwrites the posted quantity.
func (r *FoodItemRepository) SetQuantity(ctx context.Context, id string, quantity int, now time.Time) error {
	const query = `UPDATE food_items SET quantity_available = $2, updated_at = $3 WHERE id = $1`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, quantity, now); err != nil {
		return fmt.Errorf("set food item quantity: %w", err)
	}
	return nil
}

// Decrement subtracts amount from the posted quantity. It reports false when
// the row holds fewer units than requested.
func (r *FoodItemRepository) Decrement(ctx context.Context, id string, amount int, now time.Time) (bool, error) {
	const query = `
UPDATE food_items
SET quantity_available = quantity_available - $2, updated_at = $3
WHERE id = $1 AND quantity_available >= $2`
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, amount, now)
	if err != nil {
		return false, fmt.Errorf("decrement food item quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement food item quantity: %w", err)
	}
	return affected == 1, nil
}

// Archive soft-deletes an item and removes it from the claim pool.
func (r *FoodItemRepository) Archive(ctx context.Context, id string, now time.Time) error {
	const query = `
UPDATE food_items
SET is_active = false, archived_at = COALESCE(archived_at, $2), updated_at = $2
WHERE id = $1`
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("archive food item: %w", err)
	}
	return nil
}

// DeactivateExpired turns off active items whose deadline has passed.
func (r *FoodItemRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
UPDATE food_items
SET is_active = false, updated_at = $1
WHERE is_active = true AND available_until <= $1`
	return r.execCount(ctx, "deactivate expired food items", query, now)
}

// ReactivateExtended turns on inactive, non-archived items whose deadline was
// moved into the future and still have stock.
func (r *FoodItemRepository) ReactivateExtended(ctx context.Context, now time.Time) (int64, error) {
	const query = `
UPDATE food_items
SET is_active = true, updated_at = $1
WHERE is_active = false AND archived_at IS NULL AND available_until > $1 AND quantity_available > 0`
	return r.execCount(ctx, "reactivate food items", query, now)
}

func (r *FoodItemRepository) execCount(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}

const listingSelect = `
SELECT ` + foodItemColumns + `,
	u.full_name AS creator_name,
	COALESCE((SELECT SUM(fc.quantity_claimed) FROM food_claims fc
		WHERE fc.food_item_id = fi.id AND fc.status = 'reserved' AND fc.expires_at >= $1), 0) AS reserved_quantity,
	(SELECT COUNT(*) FROM food_claims fc
		WHERE fc.food_item_id = fi.id AND fc.status IN ('reserved', 'claimed')) AS claim_count
FROM food_items fi
LEFT JOIN users u ON u.id = fi.created_by`

// ListActive returns claimable items with their outstanding reservations.
func (r *FoodItemRepository) ListActive(ctx context.Context, now time.Time) ([]models.FoodItemListing, error) {
	query := listingSelect + `
WHERE fi.is_active = true AND fi.archived_at IS NULL AND fi.available_until > $1 AND fi.quantity_available > 0
ORDER BY fi.available_until ASC, fi.created_at DESC`
	var items []models.FoodItemListing
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &items, query, now); err != nil {
		return nil, fmt.Errorf("list active food items: %w", err)
	}
	return items, nil
}

// ListByCreator returns every non-archived item posted by the user.
func (r *FoodItemRepository) ListByCreator(ctx context.Context, creatorID string, now time.Time) ([]models.FoodItemListing, error) {
	query := listingSelect + `
WHERE fi.created_by = $2 AND fi.archived_at IS NULL
ORDER BY fi.created_at DESC`
	var items []models.FoodItemListing
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &items, query, now, creatorID); err != nil {
		return nil, fmt.Errorf("list food items by creator: %w", err)
	}
	return items, nil
}
