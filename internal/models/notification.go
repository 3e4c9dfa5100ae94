package models

import "time"

// NotificationType classifies notices for the client.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"userId"`
	Title           string           `db:"title" json:"title"`
	Message         string           `db:"message" json:"message"`
	Type            NotificationType `db:"type" json:"type"`
	IsRead          bool             `db:"is_read" json:"isRead"`
	RelatedItemID   *string          `db:"related_item_id" json:"relatedItemId,omitempty"`
	RelatedItemType *string          `db:"related_item_type" json:"relatedItemType,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
}
