package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cirocosta/todo-api/internal/model"
)

// TodoFilter restricts FindAll results
type TodoFilter struct {
	Status *model.Status
}

// TodoPatch carries the fields an update should change; nil fields are left as they are
type TodoPatch struct {
	Title       *string
	Description *string
	Status      *model.Status
}

// Empty reports whether the patch changes nothing
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// TodoRepository defines the interface for todo data access
type TodoRepository interface {
	// FindAll returns todos matching the filter ordered by id
	FindAll(ctx context.Context, filter TodoFilter) ([]model.Todo, error)

	// FindByID returns a specific todo by ID
	FindByID(ctx context.Context, id int64) (model.Todo, error)

	// Create adds a new todo. The store assigns the ID and both timestamps.
	Create(ctx context.Context, todo model.Todo) (model.Todo, error)

	// Update applies a patch to an existing todo and refreshes updated_at
	Update(ctx context.Context, id int64, patch TodoPatch) (model.Todo, error)

	// Delete removes a todo
	Delete(ctx context.Context, id int64) error

	// Ping performs a trivial round-trip against the store
	Ping(ctx context.Context) error
}

// InMemoryTodoRepository implements TodoRepository with an in-memory map
type InMemoryTodoRepository struct {
	todos  map[int64]model.Todo
	lastID int64
	now    func() time.Time
	mutex  sync.RWMutex
}

// NewInMemoryTodoRepository creates an empty in-memory todo repository
func NewInMemoryTodoRepository() *InMemoryTodoRepository {
	return &InMemoryTodoRepository{
		todos: make(map[int64]model.Todo),
		now:   time.Now,
	}
}

// FindAll returns all todos matching filter
func (r *InMemoryTodoRepository) FindAll(ctx context.Context, filter TodoFilter) ([]model.Todo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	todos := make([]model.Todo, 0, len(r.todos))
	for _, todo := range r.todos {
		if filter.Status != nil && todo.Status != *filter.Status {
			continue
		}
		todos = append(todos, todo)
	}

	slices.SortFunc(todos, func(a, b model.Todo) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return todos, nil
}

// FindByID returns a specific todo by ID
func (r *InMemoryTodoRepository) FindByID(ctx context.Context, id int64) (model.Todo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	todo, exists := r.todos[id]
	if !exists {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	return todo, nil
}

// Create adds a new todo
func (r *InMemoryTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// ids come from a counter that only grows, so deleted ids are never handed out again
	r.lastID++
	now := r.now().UTC()

	todo.ID = r.lastID
	if todo.Status == "" {
		todo.Status = model.StatusPending
	}
	todo.CreatedAt = now
	todo.UpdatedAt = now

	r.todos[todo.ID] = todo
	return todo, nil
}

// Update modifies an existing todo
func (r *InMemoryTodoRepository) Update(ctx context.Context, id int64, patch TodoPatch) (model.Todo, error) {
	if patch.Empty() {
		return model.Todo{}, ValidationError{Message: "no fields to update"}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	todo, exists := r.todos[id]
	if !exists {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Description != nil {
		todo.Description = *patch.Description
	}
	if patch.Status != nil {
		todo.Status = *patch.Status
	}

	if now := r.now().UTC(); now.After(todo.UpdatedAt) {
		todo.UpdatedAt = now
	}

	r.todos[id] = todo
	return todo, nil
}

// Delete removes a todo
func (r *InMemoryTodoRepository) Delete(ctx context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, exists := r.todos[id]
	if !exists {
		return ErrTodoNotFound{ID: id}
	}

	delete(r.todos, id)
	return nil
}

// Ping succeeds unless ctx is already done
func (r *InMemoryTodoRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
