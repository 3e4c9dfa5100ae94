package models

import "time"

// Audited admin actions.
const (
	AuditActionClaimComplete   = "CLAIM_COMPLETE"
	AuditActionDonationSweep   = "DONATION_SWEEP"
	AuditActionDonationReserve = "DONATION_RESERVE"
	AuditActionDonationCollect = "DONATION_COLLECT"
	AuditActionFoodItemArchive = "FOOD_ITEM_ARCHIVE"
	AuditActionFoodItemCreate  = "FOOD_ITEM_CREATE"
	AuditActionFoodItemUpdate  = "FOOD_ITEM_UPDATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
