package middleware

import (
	"errors"
	"fmt"
	"strings"

	"taskmanager/internal/models"
	"taskmanager/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	userKey  = "user"
	tokenKey = "token"
)

// ErrMissingToken is returned when the Authorization header holds no bearer token.
var ErrMissingToken = fmt.Errorf("%w: missing bearer token", services.ErrUnauthenticated)

// Authenticator resolves the user that owns a bearer token.
type Authenticator interface {
	Authenticate(token string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that admits only requests carrying a live
// session token. Every rejection gets the same 401 body so callers cannot tell
// a malformed token from a revoked one.
func AuthRequired(auth Authenticator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return reject(c, logger, err)
		}

		user, err := auth.Authenticate(token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				logger.Error("session lookup failed", zap.String("path", c.Path()), zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
			return reject(c, logger, err)
		}

		c.Locals(userKey, user)
		c.Locals(tokenKey, token)
		return c.Next()
	}
}

// CurrentUser returns the user bound by AuthRequired, or nil outside it.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// CurrentToken returns the raw token the request authenticated with.
func CurrentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func reject(c *fiber.Ctx, logger *zap.Logger, reason error) error {
	logger.Debug("request rejected",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(reason))
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Please authenticate.",
	})
}
