package models

import "time"

// User is the notification target for subscriptions. Identity and
// authentication live elsewhere; this record carries only what the
// dispatcher needs.
type User struct {
	ID    uint64 `boltholdKey:"ID"`
	Name  string `boltholdIndex:"Name"`
	Email string

	// Preferred delivery channel; email is always the fallback.
	NotificationChannel Channel

	// Per-user channel overrides
	NtfyTopic   string
	AppriseURLs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
