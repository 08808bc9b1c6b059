// package service implements business logic for the application
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cirocosta/todo-api/internal/model"
	"github.com/cirocosta/todo-api/internal/repository"
)

// MaxTitleLength is the longest title, in characters, the store accepts
const MaxTitleLength = 255

// TodoService validates input and delegates persistence to a TodoRepository.
// Every validation happens before the repository is called.
type TodoService struct {
	repo repository.TodoRepository
}

// NewTodoService creates a new todo service with the given repository
func NewTodoService(repo repository.TodoRepository) *TodoService {
	return &TodoService{
		repo: repo,
	}
}

// ListTodos returns all todos, or only those with the given status when
// status is not empty
func (s *TodoService) ListTodos(ctx context.Context, status string) ([]model.Todo, error) {
	var filter repository.TodoFilter
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}

	return s.repo.FindAll(ctx, filter)
}

// GetTodo returns a todo by ID
func (s *TodoService) GetTodo(ctx context.Context, id int64) (model.Todo, error) {
	if id <= 0 {
		return model.Todo{}, repository.ErrTodoNotFound{ID: id}
	}

	return s.repo.FindByID(ctx, id)
}

// CreateTodo creates a new todo
func (s *TodoService) CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.Todo{}, err
	}

	status := model.StatusPending
	if req.Status != nil {
		st, err := parseStatus(string(*req.Status))
		if err != nil {
			return model.Todo{}, err
		}
		status = st
	}

	return s.repo.Create(ctx, model.Todo{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	})
}

// UpdateTodo applies the fields present in req to an existing todo
func (s *TodoService) UpdateTodo(ctx context.Context, id int64, req model.UpdateTodoRequest) (model.Todo, error) {
	patch := repository.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}

	if patch.Empty() {
		return model.Todo{}, repository.ValidationError{Message: "no fields to update"}
	}
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return model.Todo{}, err
		}
	}
	if patch.Status != nil {
		if _, err := parseStatus(string(*patch.Status)); err != nil {
			return model.Todo{}, err
		}
	}

	if id <= 0 {
		return model.Todo{}, repository.ErrTodoNotFound{ID: id}
	}

	return s.repo.Update(ctx, id, patch)
}

// DeleteTodo deletes a todo
func (s *TodoService) DeleteTodo(ctx context.Context, id int64) error {
	if id <= 0 {
		return repository.ErrTodoNotFound{ID: id}
	}

	return s.repo.Delete(ctx, id)
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return repository.ValidationError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return repository.ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("must be at most %d characters", MaxTitleLength),
		}
	}
	return nil
}

func parseStatus(s string) (model.Status, error) {
	st := model.Status(s)
	if !st.Valid() {
		return "", repository.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("must be one of: %s", model.StatusList()),
		}
	}
	return st, nil
}
