package models

import "strings"

// SignupRequest is the body of POST /users.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=7,nopassword"`
	Age      int    `json:"age" validate:"gte=0"`
}

// Normalize trims and lowercases fields the way they are stored.
func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest lists every field PATCH /users/me accepts.
// Nil fields are left untouched.
type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=7,nopassword"`
	Age      *int    `json:"age" validate:"omitempty,gte=0"`
}

func (r *UserUpdateRequest) Normalize() {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		*r.Email = NormalizeEmail(*r.Email)
	}
	if r.Password != nil {
		*r.Password = strings.TrimSpace(*r.Password)
	}
}

// TaskCreateRequest is the body of POST /tasks.
type TaskCreateRequest struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

func (r *TaskCreateRequest) Normalize() {
	r.Description = strings.TrimSpace(r.Description)
}

// TaskUpdateRequest lists every field PATCH /tasks/:id accepts.
type TaskUpdateRequest struct {
	Description *string `json:"description" validate:"omitempty,min=1"`
	Completed   *bool   `json:"completed"`
}

func (r *TaskUpdateRequest) Normalize() {
	if r.Description != nil {
		*r.Description = strings.TrimSpace(*r.Description)
	}
}

// NormalizeEmail returns the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
