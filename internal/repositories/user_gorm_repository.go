package repositories

import (
	"errors"
	"fmt"
	"time"

	"taskmanager/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Omit("Tokens", "Tasks").Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// withTokens loads the user without the avatar blob and with the token list in issue order.
func (r *GORMUserRepository) withTokens() *gorm.DB {
	return r.db.Omit("avatar").Preload("Tokens", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id ASC")
	})
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.withTokens().First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.withTokens().First(&user, "email = ?", models.NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetBySession retrieves a user by ID provided token is still one of their sessions.
func (r *GORMUserRepository) GetBySession(id, token string) (*models.User, error) {
	var session models.Token
	err := r.db.Select("id").First(&session, "user_id = ? AND token = ?", id, token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session for user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up session for user %s: %w", id, err)
	}
	return r.GetByID(id)
}

// UpdateProfile writes the editable profile columns of user.
// Tokens and avatar are managed through their own methods.
func (r *GORMUserRepository) UpdateProfile(user *models.User) error {
	user.UpdatedAt = time.Now()
	res := r.db.Model(user).
		Select("name", "email", "age", "password", "updated_at").
		Updates(user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s for update: %w", user.ID, ErrNotFound)
	}
	return nil
}

// AddToken appends a session token to the user's token list.
func (r *GORMUserRepository) AddToken(userID, token string) (*models.Token, error) {
	session := &models.Token{
		ID:     uuid.Must(uuid.NewV7()).String(),
		UserID: userID,
		Token:  token,
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to store token for user %s: %w", userID, err)
	}
	return session, nil
}

// RemoveToken drops exactly one session token.
func (r *GORMUserRepository) RemoveToken(userID, token string) error {
	res := r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.Token{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove token for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session for user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// RemoveAllTokens clears the user's token list.
func (r *GORMUserRepository) RemoveAllTokens(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("failed to remove tokens for user %s: %w", userID, err)
	}
	return nil
}

// SetAvatar stores the avatar bytes; nil clears it.
func (r *GORMUserRepository) SetAvatar(userID string, avatar []byte) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"avatar":     avatar,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to store avatar for user %s: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s for avatar: %w", userID, ErrNotFound)
	}
	return nil
}

// GetAvatar returns the stored avatar, or ErrNotFound when the user has none.
func (r *GORMUserRepository) GetAvatar(userID string) ([]byte, error) {
	var user models.User
	if err := r.db.Select("id", "avatar").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get avatar for user %s: %w", userID, err)
	}
	if len(user.Avatar) == 0 {
		return nil, fmt.Errorf("avatar for user %s: %w", userID, ErrNotFound)
	}
	return user.Avatar, nil
}

// Delete removes the user, their tasks and their token list in one transaction.
// Tasks created concurrently by another session either commit before the
// delete and are removed with it, or fail the owner foreign key afterwards.
func (r *GORMUserRepository) Delete(id string) (int64, error) {
	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("owner_id = ?", id).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tasks for user %s: %w", id, res.Error)
		}
		removed = res.RowsAffected
		if err := tx.Where("user_id = ?", id).Delete(&models.Token{}).Error; err != nil {
			return fmt.Errorf("failed to remove tokens for user %s: %w", id, err)
		}
		res = tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %s for deletion: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
