package models

import (
	"time"
)

// Notification is an append-only audit entry scoped to an agency.
type Notification struct {
	ID           string    `json:"id"`
	Notification string    `json:"notification"`
	AgencyID     string    `json:"agency_id"`
	SubAccountID *string   `json:"subaccount_id,omitempty"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationWithUser is a notification joined with its acting user.
type NotificationWithUser struct {
	Notification
	User User `json:"user"`
}
