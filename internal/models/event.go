package models

import "time"

// Account event types published on the message queue.
const (
	EventAccountCreated = "account.created"
	EventAccountDeleted = "account.deleted"
)

// AccountEvent announces a change in an account's lifecycle.
type AccountEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}
