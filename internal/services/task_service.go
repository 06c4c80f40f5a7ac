package services

import (
	"errors"
	"fmt"

	"taskmanager/internal/models"
	"taskmanager/internal/repositories"
)

// TaskService handles business logic related to tasks. Every operation acts
// on behalf of an owner; a task owned by someone else is reported as ErrNotFound.
type TaskService struct {
	repo repositories.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo repositories.TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

// CreateTask stores a new task owned by ownerID.
func (s *TaskService) CreateTask(ownerID string, req models.TaskCreateRequest) (*models.Task, error) {
	task := &models.Task{
		Description: req.Description,
		Completed:   req.Completed,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask retrieves one of the owner's tasks.
func (s *TaskService) GetTask(ownerID, id string) (*models.Task, error) {
	task, err := s.repo.GetForOwner(id, ownerID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return task, nil
}

// ListTasks returns the owner's tasks narrowed by query.
func (s *TaskService) ListTasks(ownerID string, query models.TaskQuery) ([]models.Task, error) {
	if query.SortBy != "" && !repositories.IsTaskSortKey(query.SortBy) {
		return nil, NewValidationError("sortBy", fmt.Sprintf("cannot sort by %q", query.SortBy))
	}
	if query.Limit < 0 {
		return nil, NewValidationError("limit", "must not be negative")
	}
	if query.Skip < 0 {
		return nil, NewValidationError("skip", "must not be negative")
	}
	return s.repo.ListForOwner(ownerID, query)
}

// UpdateTask applies the non-nil fields of req to one of the owner's tasks.
func (s *TaskService) UpdateTask(ownerID, id string, req models.TaskUpdateRequest) (*models.Task, error) {
	task, err := s.repo.GetForOwner(id, ownerID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if err := s.repo.Update(task); err != nil {
		return nil, translateNotFound(err)
	}
	return task, nil
}

// DeleteTask removes one of the owner's tasks and returns it as it was.
func (s *TaskService) DeleteTask(ownerID, id string) (*models.Task, error) {
	task, err := s.repo.GetForOwner(id, ownerID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	if err := s.repo.DeleteForOwner(id, ownerID); err != nil {
		return nil, translateNotFound(err)
	}
	return task, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
