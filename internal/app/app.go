// Package app assembles the HTTP application from its dependencies.
package app

import (
	"errors"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/handlers"
	"taskmanager/internal/middleware"
	"taskmanager/internal/repositories"
	"taskmanager/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewApp wires repositories, services and handlers onto a new Fiber app.
// events may be nil, in which case account events are not published.
func NewApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher, log *zap.Logger) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(db)
	taskRepo := repositories.NewGORMTaskRepository(db)

	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authService := services.NewAuthService(userRepo, hasher, tokens, events, log)
	userService := services.NewUserService(userRepo, hasher, events, cfg.AvatarSize, log)
	taskService := services.NewTaskService(taskRepo)

	validate := handlers.NewValidator()
	userHandler := handlers.NewUserHandler(authService, userService, validate, int64(cfg.AvatarMaxBytes), log)
	taskHandler := handlers.NewTaskHandler(taskService, validate, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	authRequired := middleware.AuthRequired(authService, log)
	userHandler.RegisterRoutes(app, authRequired)
	taskHandler.RegisterRoutes(app, authRequired)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": events != nil,
		})
	})

	return app
}

// errorHandler answers errors that escaped the handlers. Fiber's own errors
// (404 routes, oversized bodies) keep their status; anything else is a bare 500.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
