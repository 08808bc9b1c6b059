// package api provides the HTTP API for the application
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cirocosta/todo-api/internal/model"
	"github.com/cirocosta/todo-api/internal/repository"
	"github.com/cirocosta/todo-api/pkg/router"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// TodoHandler handles HTTP requests for todo operations
type TodoHandler struct {
	todoService TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a new todo handler with the given service
func NewTodoHandler(todoService TodoService, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{
		todoService: todoService,
		logger:      logger,
	}
}

// ListTodos handles GET /api/todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todoService.ListTodos(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, err, "error listing todos")
		return
	}

	if todos == nil {
		todos = []model.Todo{}
	}

	response := model.TodoListResponse{
		Todos: todos,
		Count: len(todos),
	}

	writeJSON(w, response, http.StatusOK)
}

// GetTodo handles GET /api/todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := router.IntParam(r, "id")
	if !ok {
		writeError(w, "todo not found", http.StatusNotFound)
		return
	}

	todo, err := h.todoService.GetTodo(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "error getting todo")
		return
	}

	writeJSON(w, todo, http.StatusOK)
}

// CreateTodo handles POST /api/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTodoRequest
	if err := decodeJSONObject(w, r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	todo, err := h.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "error creating todo")
		return
	}

	writeJSON(w, todo, http.StatusCreated)
}

// UpdateTodo handles PUT /api/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := router.IntParam(r, "id")
	if !ok {
		writeError(w, "todo not found", http.StatusNotFound)
		return
	}

	var req model.UpdateTodoRequest
	if err := decodeJSONObject(w, r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	todo, err := h.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err, "error updating todo")
		return
	}

	writeJSON(w, todo, http.StatusOK)
}

// DeleteTodo handles DELETE /api/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := router.IntParam(r, "id")
	if !ok {
		writeError(w, "todo not found", http.StatusNotFound)
		return
	}

	if err := h.todoService.DeleteTodo(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "error deleting todo")
		return
	}

	writeJSON(w, model.DeleteTodoResponse{Message: "todo deleted", ID: id}, http.StatusOK)
}

// writeServiceError maps service errors to responses. Store failures are
// logged with their cause and answered with the generic message.
func (h *TodoHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var validationErr repository.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, validationErr.Error(), http.StatusBadRequest)
		return
	}

	var notFoundErr repository.ErrTodoNotFound
	if errors.As(err, &notFoundErr) {
		writeError(w, "todo not found", http.StatusNotFound)
		return
	}

	h.logger.ErrorContext(r.Context(), message,
		"error", err,
		"retryable", repository.IsRetryable(err),
		"request_id", RequestID(r.Context()),
	)

	if errors.Is(err, repository.ErrStoreUnavailable) {
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, message, http.StatusInternalServerError)
}

// decodeJSONObject decodes a body holding exactly one JSON object into dst.
// The returned error text is safe to send to the client.
func decodeJSONObject(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body must not exceed %d bytes", tooLarge.Limit)
		default:
			return errors.New("invalid request format")
		}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid request format")
	}

	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return errors.New("request body must be a JSON object")
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("invalid value for field %s", typeErr.Field)
		}
		return errors.New("invalid request format")
	}

	return nil
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: message,
	})
}
