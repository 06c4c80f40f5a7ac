package services

import (
	"errors"
	"fmt"

	"taskmanager/internal/models"
	"taskmanager/internal/repositories"

	"go.uber.org/zap"
)

// TokenIssuer issues session tokens and recovers the user ID from them.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// AuthService handles signup, login and the session token lifecycle.
type AuthService struct {
	userRepo repositories.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventPublisher
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. events may be nil.
func NewAuthService(userRepo repositories.UserRepository, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		logger:   logger,
	}
}

// Register creates an account from a validated, normalized request and opens
// its first session.
func (s *AuthService) Register(req models.SignupRequest) (*models.User, string, error) {
	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Password: hashed,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.openSession(user)
	if err != nil {
		// Without its first session the account is unusable; drop it so the
		// email can be registered again.
		if _, delErr := s.userRepo.Delete(user.ID); delErr != nil {
			s.logger.Error("failed to roll back registration",
				zap.String("user_id", user.ID),
				zap.Error(delErr))
		}
		return nil, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	publishAccountEvent(s.events, s.logger, models.EventAccountCreated, user)
	return user, token, nil
}

// Login checks the credentials and appends a new session token.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !s.hasher.Compare(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Debug("user logged in",
		zap.String("user_id", user.ID),
		zap.Int("sessions", len(user.Tokens)))
	return user, token, nil
}

// Authenticate resolves the user behind a bearer token. The token must verify
// and still be present in its owner's token list.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetBySession(userID, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRevokedSession
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return user, nil
}

// Logout revokes the single session identified by token.
func (s *AuthService) Logout(user *models.User, token string) error {
	if err := s.userRepo.RemoveToken(user.ID, token); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRevokedSession
		}
		return fmt.Errorf("failed to log out: %w", err)
	}
	s.logger.Debug("session revoked", zap.String("user_id", user.ID))
	return nil
}

// LogoutAll revokes every session of user on every device.
func (s *AuthService) LogoutAll(user *models.User) error {
	if err := s.userRepo.RemoveAllTokens(user.ID); err != nil {
		return fmt.Errorf("failed to log out everywhere: %w", err)
	}
	user.Tokens = nil
	s.logger.Debug("all sessions revoked", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) openSession(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}
	session, err := s.userRepo.AddToken(user.ID, token)
	if err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}
	user.Tokens = append(user.Tokens, *session)
	return token, nil
}
