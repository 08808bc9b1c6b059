// package model contains the data models for the todo API
package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a todo item
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every accepted status, in lifecycle order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the accepted statuses. Matching is case-sensitive.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// StatusList renders the accepted statuses for error messages
func StatusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Todo represents a todo item in the system
type Todo struct {
	ID          int64     `json:"id" db:"id" doc:"Unique identifier assigned by the store" example:"1"`
	Title       string    `json:"title" db:"title" doc:"Title of the todo item" example:"Buy milk"`
	Description string    `json:"description" db:"description" doc:"Detailed description of the todo item" example:"2%"`
	Status      Status    `json:"status" db:"status" doc:"Current status of the todo item" enum:"pending,in-progress,completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" doc:"When the todo item was created"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at" doc:"When the todo item was last modified"`
}

// CreateTodoRequest is used when creating a new todo item
type CreateTodoRequest struct {
	Title       string  `json:"title" doc:"Title of the todo item" example:"Buy milk"`
	Description string  `json:"description,omitempty" doc:"Detailed description of the todo item" example:"2%"`
	Status      *Status `json:"status,omitempty" doc:"Initial status, pending when omitted" enum:"pending,in-progress,completed"`
}

// UpdateTodoRequest is used when updating an existing todo item.
// Only the fields present in the body are applied.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty" doc:"New title" example:"Buy oat milk"`
	Description *string `json:"description,omitempty" doc:"New description"`
	Status      *Status `json:"status,omitempty" doc:"New status" enum:"pending,in-progress,completed"`
}

// TodoListResponse is used for responses with multiple todo items
type TodoListResponse struct {
	Todos []Todo `json:"todos" doc:"List of todo items ordered by id"`
	Count int    `json:"count" doc:"Number of items in the list" example:"1"`
}

// DeleteTodoResponse confirms a deletion
type DeleteTodoResponse struct {
	Message string `json:"message" example:"todo deleted"`
	ID      int64  `json:"id" example:"1"`
}

// HealthResponse reports the outcome of a health probe
type HealthResponse struct {
	Status    string    `json:"status" doc:"healthy or unhealthy" enum:"healthy,unhealthy"`
	Database  string    `json:"database,omitempty" example:"connected"`
	Error     string    `json:"error,omitempty" example:"database unavailable"`
	Timestamp time.Time `json:"timestamp"`
}

// InfoResponse describes the service on the root endpoint
type InfoResponse struct {
	Name      string            `json:"name" example:"Todo List API"`
	Version   string            `json:"version" example:"1.0.0"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResponse represents an error returned by the API
type ErrorResponse struct {
	Error string `json:"error" doc:"Error message" example:"todo not found"`
}
