package models

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	OwnerID     string    `json:"owner" gorm:"index;type:varchar(36);not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Sortable task fields, keyed by their JSON name.
const (
	SortByDescription = "description"
	SortByCompleted   = "completed"
	SortByCreatedAt   = "createdAt"
	SortByUpdatedAt   = "updatedAt"
)

// TaskQuery narrows and orders a task listing. Zero Limit means no limit.
type TaskQuery struct {
	Completed *bool
	SortBy    string
	Desc      bool
	Limit     int
	Skip      int
}
