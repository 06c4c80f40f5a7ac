package repositories

import (
	"errors"
	"fmt"
	"time"

	"taskmanager/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// taskSortColumns maps the public sort keys onto task columns.
var taskSortColumns = map[string]string{
	models.SortByDescription: "description",
	models.SortByCompleted:   "completed",
	models.SortByCreatedAt:   "created_at",
	models.SortByUpdatedAt:   "updated_at",
}

// IsTaskSortKey reports whether key can be used as TaskQuery.SortBy.
func IsTaskSortKey(key string) bool {
	_, ok := taskSortColumns[key]
	return ok
}

// GORMTaskRepository is a GORM implementation of TaskRepository.
type GORMTaskRepository struct {
	db *gorm.DB
}

// NewGORMTaskRepository creates a new instance of GORMTaskRepository.
func NewGORMTaskRepository(db *gorm.DB) *GORMTaskRepository {
	return &GORMTaskRepository{
		db: db,
	}
}

// Create creates a new task in the database.
// IDs are version 7 UUIDs so ordering by id follows insertion order.
func (r *GORMTaskRepository) Create(task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.Must(uuid.NewV7()).String()
	}
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetForOwner retrieves a task by ID only if ownerID owns it.
func (r *GORMTaskRepository) GetForOwner(id, ownerID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %s: %w", id, err)
	}
	return &task, nil
}

// ListForOwner returns the owner's tasks filtered, ordered and paginated by query.
// Rows that compare equal on the sort key keep their insertion order
// (reversed for descending sorts).
func (r *GORMTaskRepository) ListForOwner(ownerID string, query models.TaskQuery) ([]models.Task, error) {
	tx := r.db.Where("owner_id = ?", ownerID)
	if query.Completed != nil {
		tx = tx.Where("completed = ?", *query.Completed)
	}

	direction := "ASC"
	if query.Desc {
		direction = "DESC"
	}
	if query.SortBy != "" {
		column, ok := taskSortColumns[query.SortBy]
		if !ok {
			return nil, fmt.Errorf("unsupported sort key %q", query.SortBy)
		}
		tx = tx.Order(column + " " + direction).Order("id " + direction)
	} else {
		tx = tx.Order("id ASC")
	}

	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Skip > 0 {
		tx = tx.Offset(query.Skip)
	}

	tasks := []models.Task{}
	if err := tx.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks for owner %s: %w", ownerID, err)
	}
	return tasks, nil
}

// Update writes the mutable task fields.
func (r *GORMTaskRepository) Update(task *models.Task) error {
	task.UpdatedAt = time.Now()
	res := r.db.Model(&models.Task{}).
		Where("id = ? AND owner_id = ?", task.ID, task.OwnerID).
		Updates(map[string]interface{}{
			"description": task.Description,
			"completed":   task.Completed,
			"updated_at":  task.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %s for update: %w", task.ID, ErrNotFound)
	}
	return nil
}

// DeleteForOwner deletes a task by ID only if ownerID owns it.
func (r *GORMTaskRepository) DeleteForOwner(id, ownerID string) error {
	res := r.db.Delete(&models.Task{}, "id = ? AND owner_id = ?", id, ownerID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}
