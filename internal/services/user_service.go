package services

import (
	"errors"
	"fmt"

	"taskmanager/internal/models"
	"taskmanager/internal/repositories"
	"taskmanager/pkg/avatar"

	"go.uber.org/zap"
)

// UserService handles profile changes, avatars and account removal.
type UserService struct {
	userRepo   repositories.UserRepository
	hasher     PasswordHasher
	events     EventPublisher
	avatarSize int
	logger     *zap.Logger
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(userRepo repositories.UserRepository, hasher PasswordHasher, events EventPublisher, avatarSize int, logger *zap.Logger) *UserService {
	if avatarSize <= 0 {
		avatarSize = avatar.DefaultSize
	}
	return &UserService{
		userRepo:   userRepo,
		hasher:     hasher,
		events:     events,
		avatarSize: avatarSize,
		logger:     logger,
	}
}

// UpdateProfile applies the non-nil fields of req to user and persists them.
// The password is hashed before it is stored; an absent password keeps the old hash.
func (s *UserService) UpdateProfile(user *models.User, req models.UserUpdateRequest) (*models.User, error) {
	updated := *user
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Age != nil {
		updated.Age = *req.Age
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(*req.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		updated.Email = *req.Email
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = hashed
	}

	if err := s.userRepo.UpdateProfile(&updated); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &updated, nil
}

// DeleteAccount removes the user together with every task and session they own.
func (s *UserService) DeleteAccount(user *models.User) error {
	removed, err := s.userRepo.Delete(user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user %s: %w", user.ID, err)
	}
	s.logger.Info("account deleted",
		zap.String("user_id", user.ID),
		zap.Int64("tasks_removed", removed))
	publishAccountEvent(s.events, s.logger, models.EventAccountDeleted, user)
	return nil
}

// SetAvatar normalizes an uploaded image and stores it as the user's avatar.
func (s *UserService) SetAvatar(user *models.User, data []byte) error {
	normalized, err := avatar.Normalize(data, s.avatarSize)
	if err != nil {
		return NewValidationError("avatar", err.Error())
	}
	if err := s.userRepo.SetAvatar(user.ID, normalized); err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	return nil
}

// DeleteAvatar clears the user's avatar.
func (s *UserService) DeleteAvatar(user *models.User) error {
	if err := s.userRepo.SetAvatar(user.ID, nil); err != nil {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}

// GetAvatar returns the stored PNG avatar of userID.
func (s *UserService) GetAvatar(userID string) ([]byte, error) {
	data, err := s.userRepo.GetAvatar(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}
	return data, nil
}
