package repositories

import (
	"errors"

	"taskmanager/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the email is already held by another user.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for user and session token data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	// GetBySession returns the user only while token is still in their token list.
	GetBySession(id, token string) (*models.User, error)
	UpdateProfile(user *models.User) error
	AddToken(userID, token string) (*models.Token, error)
	RemoveToken(userID, token string) error
	RemoveAllTokens(userID string) error
	SetAvatar(userID string, avatar []byte) error
	GetAvatar(userID string) ([]byte, error)
	// Delete removes the user together with their token list and tasks in one
	// transaction and reports how many tasks went with them.
	Delete(id string) (int64, error)
}
