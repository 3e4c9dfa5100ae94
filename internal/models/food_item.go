package models

import "time"

// FoodItem is a posted batch of surplus food.
type FoodItem struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Description       *string    `db:"description" json:"description,omitempty"`
	CanteenName       string     `db:"canteen_name" json:"canteenName"`
	CanteenLocation   *string    `db:"canteen_location" json:"canteenLocation,omitempty"`
	ImageURL          *string    `db:"image_url" json:"imageUrl,omitempty"`
	QuantityAvailable int        `db:"quantity_available" json:"quantityAvailable"`
	AvailableUntil    time.Time  `db:"available_until" json:"availableUntil"`
	IsActive          bool       `db:"is_active" json:"isActive"`
	CreatedBy         string     `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
	ArchivedAt        *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
}

// Expired reports whether the pickup deadline has passed at now.
func (f *FoodItem) Expired(now time.Time) bool {
	return !now.Before(f.AvailableUntil)
}

// Archived reports whether the item was soft-deleted by its poster.
func (f *FoodItem) Archived() bool {
	return f.ArchivedAt != nil
}

// FoodItemListing enriches an item with reservation accounting for listings.
type FoodItemListing struct {
	FoodItem
	CreatorName      *string `db:"creator_name" json:"creatorName,omitempty"`
	ReservedQuantity int     `db:"reserved_quantity" json:"reservedQuantity"`
	ClaimCount       int     `db:"claim_count" json:"claimCount"`
}

// ActualAvailable is the posted quantity minus outstanding reservations.
func (l FoodItemListing) ActualAvailable() int {
	if n := l.QuantityAvailable - l.ReservedQuantity; n > 0 {
		return n
	}
	return 0
}

// FoodItemChanges captures poster-editable descriptive fields.
type FoodItemChanges struct {
	Name            *string
	Description     *string
	CanteenName     *string
	CanteenLocation *string
	ImageURL        *string
	AvailableUntil  *time.Time
}
