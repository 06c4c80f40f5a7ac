package handlers

import (
	"strconv"
	"strings"

	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TaskHandler handles HTTP requests for the current user's tasks.
type TaskHandler struct {
	service  *services.TaskService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service *services.TaskService, validate *validator.Validate, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

// RegisterRoutes registers the task routes; all of them require authentication.
func (h *TaskHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	tasks := router.Group("/tasks", authRequired)
	tasks.Get("/", h.HandleListTasks)
	tasks.Get("/:id", h.HandleGetTask)
	tasks.Post("/", h.HandleCreateTask)
	tasks.Patch("/:id", h.HandleUpdateTask)
	tasks.Delete("/:id", h.HandleDeleteTask)
}

// HandleListTasks lists tasks, honoring ?completed=, ?sortBy=field[:asc|desc], ?limit= and ?skip=.
func (h *TaskHandler) HandleListTasks(c *fiber.Ctx) error {
	query, err := parseTaskQuery(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	tasks, err := h.service.ListTasks(middleware.CurrentUser(c).ID, query)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(tasks)
}

// HandleGetTask returns one task of the current user.
func (h *TaskHandler) HandleGetTask(c *fiber.Ctx) error {
	task, err := h.service.GetTask(middleware.CurrentUser(c).ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(task)
}

// HandleCreateTask creates a task owned by the current user.
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	var req models.TaskCreateRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	req.Normalize()
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, h.logger, err)
	}

	task, err := h.service.CreateTask(middleware.CurrentUser(c).ID, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// HandleUpdateTask applies a partial update to one of the current user's tasks.
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	var req models.TaskUpdateRequest
	if err := parseUpdateBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	req.Normalize()
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, h.logger, err)
	}

	task, err := h.service.UpdateTask(middleware.CurrentUser(c).ID, c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(task)
}

// HandleDeleteTask deletes one of the current user's tasks and echoes it back.
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	task, err := h.service.DeleteTask(middleware.CurrentUser(c).ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(task)
}

func parseTaskQuery(c *fiber.Ctx) (models.TaskQuery, error) {
	var query models.TaskQuery

	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return query, services.NewValidationError("completed", "must be true or false")
		}
		query.Completed = &completed
	}

	if raw := c.Query("sortBy"); raw != "" {
		parts := strings.SplitN(raw, ":", 2)
		query.SortBy = parts[0]
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				query.Desc = true
			default:
				return query, services.NewValidationError("sortBy", "direction must be asc or desc")
			}
		}
	}

	var err error
	if query.Limit, err = nonNegativeInt(c.Query("limit")); err != nil {
		return query, services.NewValidationError("limit", "must be a non-negative integer")
	}
	if query.Skip, err = nonNegativeInt(c.Query("skip")); err != nil {
		return query, services.NewValidationError("skip", "must be a non-negative integer")
	}
	return query, nil
}

func nonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
