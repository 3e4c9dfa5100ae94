package models

import "time"

// ClaimStatus is the closed set of claim lifecycle states.
type ClaimStatus string

const (
	ClaimStatusReserved  ClaimStatus = "reserved"
	ClaimStatusClaimed   ClaimStatus = "claimed"
	ClaimStatusExpired   ClaimStatus = "expired"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// Valid reports whether s is one of the known states.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusReserved, ClaimStatusClaimed, ClaimStatusExpired, ClaimStatusCancelled:
		return true
	default:
		return false
	}
}

// Outstanding reports whether the claim still counts toward the
// one-claim-per-user-per-item rule.
func (s ClaimStatus) Outstanding() bool {
	switch s {
	case ClaimStatusReserved, ClaimStatusClaimed:
		return true
	case ClaimStatusExpired, ClaimStatusCancelled:
		return false
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s ClaimStatus) Terminal() bool {
	switch s {
	case ClaimStatusReserved:
		return false
	case ClaimStatusClaimed, ClaimStatusExpired, ClaimStatusCancelled:
		return true
	default:
		return true
	}
}

// FoodClaim is a student's reservation of units from a FoodItem.
type FoodClaim struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"userId"`
	FoodItemID      string      `db:"food_item_id" json:"foodItemId"`
	QuantityClaimed int         `db:"quantity_claimed" json:"quantityClaimed"`
	ClaimCode       string      `db:"claim_code" json:"claimCode"`
	Status          ClaimStatus `db:"status" json:"status"`
	ExpiresAt       time.Time   `db:"expires_at" json:"expiresAt"`
	ClaimedAt       *time.Time  `db:"claimed_at" json:"claimedAt,omitempty"`
	CancelledAt     *time.Time  `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// PastDeadline reports a reserved claim whose TTL elapsed at now.
func (c *FoodClaim) PastDeadline(now time.Time) bool {
	return c.Status == ClaimStatusReserved && now.After(c.ExpiresAt)
}

// FoodClaimDetail joins the claimant and item for staff display.
type FoodClaimDetail struct {
	FoodClaim
	UserEmail       *string   `db:"user_email" json:"userEmail,omitempty"`
	UserFullName    *string   `db:"user_full_name" json:"userFullName,omitempty"`
	ItemName        string    `db:"item_name" json:"itemName"`
	CanteenName     string    `db:"canteen_name" json:"canteenName"`
	CanteenLocation *string   `db:"canteen_location" json:"canteenLocation,omitempty"`
	AvailableUntil  time.Time `db:"available_until" json:"availableUntil"`
	ItemCreatedBy   string    `db:"item_created_by" json:"itemCreatedBy"`
}
