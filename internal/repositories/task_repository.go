package repositories

import "taskmanager/internal/models"

// TaskRepository defines the interface for task data access.
// Every method is scoped to a single owner.
type TaskRepository interface {
	Create(task *models.Task) error
	GetForOwner(id, ownerID string) (*models.Task, error)
	ListForOwner(ownerID string, query models.TaskQuery) ([]models.Task, error)
	Update(task *models.Task) error
	DeleteForOwner(id, ownerID string) error
}
