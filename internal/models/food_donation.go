package models

import "time"

// DonationStatus is the closed set of donation states.
type DonationStatus string

const (
	DonationStatusAvailable      DonationStatus = "available"
	DonationStatusReservedForNGO DonationStatus = "reserved_for_ngo"
	DonationStatusCollected      DonationStatus = "collected"
)

// Valid reports whether s is one of the known states.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusAvailable, DonationStatusReservedForNGO, DonationStatusCollected:
		return true
	default:
		return false
	}
}

// FoodDonation records unclaimed inventory moved out of the claim pool.
type FoodDonation struct {
	ID               string         `db:"id" json:"id"`
	FoodItemID       string         `db:"food_item_id" json:"foodItemId"`
	QuantityDonated  int            `db:"quantity_donated" json:"quantityDonated"`
	Status           DonationStatus `db:"status" json:"status"`
	NGOName          *string        `db:"ngo_name" json:"ngoName,omitempty"`
	NGOContactPerson *string        `db:"ngo_contact_person" json:"ngoContactPerson,omitempty"`
	NGOPhoneNumber   *string        `db:"ngo_phone_number" json:"ngoPhoneNumber,omitempty"`
	DonatedAt        time.Time      `db:"donated_at" json:"donatedAt"`
	ReservedAt       *time.Time     `db:"reserved_at" json:"reservedAt,omitempty"`
	CollectedAt      *time.Time     `db:"collected_at" json:"collectedAt,omitempty"`
	Notes            *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}

// FoodDonationDetail joins the source item.
type FoodDonationDetail struct {
	FoodDonation
	ItemName       string    `db:"item_name" json:"itemName"`
	CanteenName    string    `db:"canteen_name" json:"canteenName"`
	AvailableUntil time.Time `db:"available_until" json:"availableUntil"`
	ItemCreatedBy  string    `db:"item_created_by" json:"itemCreatedBy"`
}

// DonationFilter narrows donation listings.
type DonationFilter struct {
	Status    DonationStatus
	CreatedBy string
}

// NGOAssignment holds the pickup contact recorded when reserving a donation.
type NGOAssignment struct {
	Name          string
	ContactPerson string
	PhoneNumber   string
}
