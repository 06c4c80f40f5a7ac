package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	authService    *services.AuthService
	userService    *services.UserService
	validate       *validator.Validate
	avatarMaxBytes int64
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, userService *services.UserService, validate *validator.Validate, avatarMaxBytes int64, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService:    authService,
		userService:    userService,
		validate:       validate,
		avatarMaxBytes: avatarMaxBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the user routes. Signup, login and avatar
// fetching are public; everything else sits behind authRequired.
func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	users := router.Group("/users")
	users.Post("/", h.HandleSignup)
	users.Post("/login", h.HandleLogin)
	users.Get("/:id/avatar", h.HandleGetAvatar)

	users.Post("/logout", authRequired, h.HandleLogout)
	users.Post("/logoutAll", authRequired, h.HandleLogoutAll)
	users.Get("/me", authRequired, h.HandleGetMe)
	users.Patch("/me", authRequired, h.HandleUpdateMe)
	users.Delete("/me", authRequired, h.HandleDeleteMe)
	users.Post("/me/avatar", authRequired, h.HandleUploadAvatar)
	users.Delete("/me/avatar", authRequired, h.HandleDeleteAvatar)
}

// HandleSignup creates an account and returns it with its first token.
func (h *UserHandler) HandleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	req.Normalize()
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, token, err := h.authService.Register(req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// HandleLogin issues a new session token for valid credentials.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		// Missing credentials are reported like wrong ones.
		return respondError(c, h.logger, services.ErrInvalidCredentials)
	}

	user, token, err := h.authService.Login(req.Email, strings.TrimSpace(req.Password))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// HandleLogout revokes the token the request was made with.
func (h *UserHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(middleware.CurrentUser(c), middleware.CurrentToken(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleLogoutAll revokes every token of the current user.
func (h *UserHandler) HandleLogoutAll(c *fiber.Ctx) error {
	if err := h.authService.LogoutAll(middleware.CurrentUser(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out of all sessions"})
}

// HandleGetMe returns the current user's profile.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// HandleUpdateMe applies a partial profile update.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var req models.UserUpdateRequest
	if err := parseUpdateBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	req.Normalize()
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.userService.UpdateProfile(middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(user)
}

// HandleDeleteMe deletes the current account and everything it owns.
func (h *UserHandler) HandleDeleteMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.userService.DeleteAccount(user); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(user)
}

// HandleUploadAvatar stores the "avatar" form file as the user's picture.
func (h *UserHandler) HandleUploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return respondError(c, h.logger, services.NewValidationError("avatar", "Please upload an image"))
	}
	if file.Size > h.avatarMaxBytes {
		return respondError(c, h.logger, services.NewValidationError("avatar",
			fmt.Sprintf("File must not exceed %d bytes", h.avatarMaxBytes)))
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return respondError(c, h.logger, services.NewValidationError("avatar", "Please upload a JPG, JPEG or PNG image"))
	}

	f, err := file.Open()
	if err != nil {
		return respondError(c, h.logger, fmt.Errorf("failed to open upload: %w", err))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.avatarMaxBytes))
	if err != nil {
		return respondError(c, h.logger, fmt.Errorf("failed to read upload: %w", err))
	}

	if err := h.userService.SetAvatar(middleware.CurrentUser(c), data); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Avatar uploaded"})
}

// HandleDeleteAvatar removes the user's picture.
func (h *UserHandler) HandleDeleteAvatar(c *fiber.Ctx) error {
	if err := h.userService.DeleteAvatar(middleware.CurrentUser(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Avatar deleted"})
}

// HandleGetAvatar serves a user's picture as PNG.
func (h *UserHandler) HandleGetAvatar(c *fiber.Ctx) error {
	data, err := h.userService.GetAvatar(c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}
