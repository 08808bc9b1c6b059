package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cirocosta/todo-api/internal/model"
	"github.com/cirocosta/todo-api/internal/repository"
)

// mockTodoService is a mock implementation of TodoService
type mockTodoService struct {
	mock.Mock
}

func (m *mockTodoService) ListTodos(ctx context.Context, status string) ([]model.Todo, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]model.Todo), args.Error(1)
}

func (m *mockTodoService) GetTodo(ctx context.Context, id int64) (model.Todo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) UpdateTodo(ctx context.Context, id int64, req model.UpdateTodoRequest) (model.Todo, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) DeleteTodo(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var (
	created = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	storeDown = &repository.Error{
		Op:        "list todos",
		Err:       fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, errors.New("dial tcp 10.0.0.5:5432: connection refused")),
		Retryable: true,
	}
)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListTodos(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		query          string
		setupMock      func(m *mockTodoService)
		wantStatus     int
		wantResponse   model.TodoListResponse
		wantErr        string
		wantRetryAfter string
	}{
		"success": {
			setupMock: func(m *mockTodoService) {
				todos := []model.Todo{
					{ID: 1, Title: "Todo 1", Status: model.StatusPending, CreatedAt: created, UpdatedAt: created},
					{ID: 2, Title: "Todo 2", Status: model.StatusCompleted, CreatedAt: created, UpdatedAt: created},
				}
				m.On("ListTodos", mock.Anything, "").Return(todos, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: model.TodoListResponse{
				Todos: []model.Todo{
					{ID: 1, Title: "Todo 1", Status: model.StatusPending, CreatedAt: created, UpdatedAt: created},
					{ID: 2, Title: "Todo 2", Status: model.StatusCompleted, CreatedAt: created, UpdatedAt: created},
				},
				Count: 2,
			},
		},
		"filtered and empty": {
			query: "?status=completed",
			setupMock: func(m *mockTodoService) {
				m.On("ListTodos", mock.Anything, "completed").Return([]model.Todo(nil), nil)
			},
			wantStatus:   http.StatusOK,
			wantResponse: model.TodoListResponse{Todos: []model.Todo{}, Count: 0},
		},
		"invalid status": {
			query: "?status=done",
			setupMock: func(m *mockTodoService) {
				m.On("ListTodos", mock.Anything, "done").Return([]model.Todo(nil),
					repository.ValidationError{Field: "status", Message: "must be one of: pending, in-progress, completed"})
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    "status must be one of: pending, in-progress, completed",
		},
		"service error": {
			setupMock: func(m *mockTodoService) {
				m.On("ListTodos", mock.Anything, "").Return([]model.Todo{}, errors.New("database error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "error listing todos",
		},
		"store unavailable": {
			setupMock: func(m *mockTodoService) {
				m.On("ListTodos", mock.Anything, "").Return([]model.Todo(nil), storeDown)
			},
			wantStatus:     http.StatusInternalServerError,
			wantErr:        "error listing todos",
			wantRetryAfter: "1",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			mockService := new(mockTodoService)
			tc.setupMock(mockService)

			handler := NewTodoHandler(mockService, discardLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/todos"+tc.query, nil).WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ListTodos(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantRetryAfter, rec.Header().Get("Retry-After"))

			if tc.wantErr != "" {
				var errResp model.ErrorResponse
				err := json.Unmarshal(rec.Body.Bytes(), &errResp)
				require.NoError(t, err)
				assert.Equal(t, tc.wantErr, errResp.Error)
				assert.NotContains(t, rec.Body.String(), "10.0.0.5", "store errors are never sent to clients")
				return
			}

			assert.JSONEq(t, mustJSON(t, tc.wantResponse), rec.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestGetTodo(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		todoID     string
		setupMock  func(m *mockTodoService)
		wantStatus int
		wantTodo   model.Todo
		wantErr    string
	}{
		"success": {
			todoID: "123",
			setupMock: func(m *mockTodoService) {
				todo := model.Todo{ID: 123, Title: "Test Todo", Status: model.StatusPending, CreatedAt: created, UpdatedAt: created}
				m.On("GetTodo", mock.Anything, int64(123)).Return(todo, nil)
			},
			wantStatus: http.StatusOK,
			wantTodo:   model.Todo{ID: 123, Title: "Test Todo", Status: model.StatusPending, CreatedAt: created, UpdatedAt: created},
		},
		"not found": {
			todoID: "999",
			setupMock: func(m *mockTodoService) {
				m.On("GetTodo", mock.Anything, int64(999)).Return(model.Todo{}, repository.ErrTodoNotFound{ID: 999})
			},
			wantStatus: http.StatusNotFound,
			wantErr:    "todo not found",
		},
		"non integer id": {
			todoID:     "abc",
			setupMock:  func(m *mockTodoService) {},
			wantStatus: http.StatusNotFound,
			wantErr:    "todo not found",
		},
		"service error": {
			todoID: "123",
			setupMock: func(m *mockTodoService) {
				m.On("GetTodo", mock.Anything, int64(123)).Return(model.Todo{}, errors.New("database error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "error getting todo",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mockService := new(mockTodoService)
			tc.setupMock(mockService)

			handler := NewTodoHandler(mockService, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/api/todos/"+tc.todoID, nil)
			req.SetPathValue("id", tc.todoID)
			rec := httptest.NewRecorder()

			handler.GetTodo(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantErr != "" {
				var errResp model.ErrorResponse
				err := json.Unmarshal(rec.Body.Bytes(), &errResp)
				require.NoError(t, err)
				assert.Equal(t, tc.wantErr, errResp.Error)
				mockService.AssertExpectations(t)
				return
			}

			var gotTodo model.Todo
			err := json.Unmarshal(rec.Body.Bytes(), &gotTodo)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.wantTodo, gotTodo); diff != "" {
				t.Errorf("todo mismatch (-want +got):\n%s", diff)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestCreateTodo(t *testing.T) {
	t.Parallel()

	newTodo := model.Todo{ID: 1, Title: "New Todo", Status: model.StatusPending, CreatedAt: created, UpdatedAt: created}

	for name, tc := range map[string]struct {
		requestBody string
		setupMock   func(m *mockTodoService)
		wantStatus  int
		wantTodo    model.Todo
		wantErr     string
	}{
		"success": {
			requestBody: `{"title": "New Todo"}`,
			setupMock: func(m *mockTodoService) {
				m.On("CreateTodo", mock.Anything, model.CreateTodoRequest{Title: "New Todo"}).Return(newTodo, nil)
			},
			wantStatus: http.StatusCreated,
			wantTodo:   newTodo,
		},
		"unknown fields are ignored": {
			requestBody: `{"title": "New Todo", "priority": "high", "status": "pending"}`,
			setupMock: func(m *mockTodoService) {
				expectedReq := model.CreateTodoRequest{Title: "New Todo", Status: ptr(model.StatusPending)}
				m.On("CreateTodo", mock.Anything, expectedReq).Return(newTodo, nil)
			},
			wantStatus: http.StatusCreated,
			wantTodo:   newTodo,
		},
		"invalid json": {
			requestBody: `{invalid json`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "invalid request format",
		},
		"array body": {
			requestBody: `[{"title": "New Todo"}]`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "request body must be a JSON object",
		},
		"scalar body": {
			requestBody: `"New Todo"`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "request body must be a JSON object",
		},
		"null body": {
			requestBody: `null`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "request body must be a JSON object",
		},
		"empty body": {
			requestBody: ``,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "request body is empty",
		},
		"trailing data": {
			requestBody: `{"title": "a"} {"title": "b"}`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "invalid request format",
		},
		"wrong field type": {
			requestBody: `{"title": 5}`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "invalid value for field title",
		},
		"missing title": {
			requestBody: `{"description": "no title"}`,
			setupMock: func(m *mockTodoService) {
				expectedReq := model.CreateTodoRequest{Description: "no title"}
				m.On("CreateTodo", mock.Anything, expectedReq).
					Return(model.Todo{}, repository.ValidationError{Field: "title", Message: "is required"})
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    "title is required",
		},
		"service error": {
			requestBody: `{"title": "New Todo"}`,
			setupMock: func(m *mockTodoService) {
				m.On("CreateTodo", mock.Anything, model.CreateTodoRequest{Title: "New Todo"}).
					Return(model.Todo{}, errors.New("database error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "error creating todo",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			mockService := new(mockTodoService)
			tc.setupMock(mockService)

			handler := NewTodoHandler(mockService, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(tc.requestBody)).WithContext(ctx)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.CreateTodo(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantErr != "" {
				var errResp model.ErrorResponse
				err := json.Unmarshal(rec.Body.Bytes(), &errResp)
				require.NoError(t, err)
				assert.Equal(t, tc.wantErr, errResp.Error)
				mockService.AssertExpectations(t)
				return
			}

			var gotTodo model.Todo
			err := json.Unmarshal(rec.Body.Bytes(), &gotTodo)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.wantTodo, gotTodo); diff != "" {
				t.Errorf("todo mismatch (-want +got):\n%s", diff)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestCreateTodoBodyTooLarge(t *testing.T) {
	t.Parallel()

	mockService := new(mockTodoService)
	handler := NewTodoHandler(mockService, discardLogger())

	body := `{"title": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/todos", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateTodo(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must not exceed")
	mockService.AssertNotCalled(t, "CreateTodo", mock.Anything, mock.Anything)
}

func TestUpdateTodo(t *testing.T) {
	t.Parallel()

	updatedTodo := model.Todo{ID: 123, Title: "Updated Todo", Status: model.StatusCompleted, CreatedAt: created, UpdatedAt: created.Add(time.Hour)}

	for name, tc := range map[string]struct {
		todoID      string
		requestBody string
		setupMock   func(m *mockTodoService)
		wantStatus  int
		wantTodo    model.Todo
		wantErr     string
	}{
		"success": {
			todoID:      "123",
			requestBody: `{"title": "Updated Todo", "status": "completed"}`,
			setupMock: func(m *mockTodoService) {
				expectedReq := model.UpdateTodoRequest{Title: ptr("Updated Todo"), Status: ptr(model.StatusCompleted)}
				m.On("UpdateTodo", mock.Anything, int64(123), expectedReq).Return(updatedTodo, nil)
			},
			wantStatus: http.StatusOK,
			wantTodo:   updatedTodo,
		},
		"invalid json": {
			todoID:      "123",
			requestBody: `{invalid json`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusBadRequest,
			wantErr:     "invalid request format",
		},
		"no fields": {
			todoID:      "123",
			requestBody: `{"priority": "high"}`,
			setupMock: func(m *mockTodoService) {
				m.On("UpdateTodo", mock.Anything, int64(123), model.UpdateTodoRequest{}).
					Return(model.Todo{}, repository.ValidationError{Message: "no fields to update"})
			},
			wantStatus: http.StatusBadRequest,
			wantErr:    "no fields to update",
		},
		"not found": {
			todoID:      "999",
			requestBody: `{"title": "Updated Todo"}`,
			setupMock: func(m *mockTodoService) {
				expectedReq := model.UpdateTodoRequest{Title: ptr("Updated Todo")}
				m.On("UpdateTodo", mock.Anything, int64(999), expectedReq).Return(model.Todo{}, repository.ErrTodoNotFound{ID: 999})
			},
			wantStatus: http.StatusNotFound,
			wantErr:    "todo not found",
		},
		"zero id": {
			todoID:      "0",
			requestBody: `{"title": "Updated Todo"}`,
			setupMock:   func(m *mockTodoService) {},
			wantStatus:  http.StatusNotFound,
			wantErr:     "todo not found",
		},
		"service error": {
			todoID:      "123",
			requestBody: `{"title": "Updated Todo"}`,
			setupMock: func(m *mockTodoService) {
				expectedReq := model.UpdateTodoRequest{Title: ptr("Updated Todo")}
				m.On("UpdateTodo", mock.Anything, int64(123), expectedReq).Return(model.Todo{}, errors.New("database error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "error updating todo",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mockService := new(mockTodoService)
			tc.setupMock(mockService)

			handler := NewTodoHandler(mockService, discardLogger())

			req := httptest.NewRequest(http.MethodPut, "/api/todos/"+tc.todoID, strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("id", tc.todoID)
			rec := httptest.NewRecorder()

			handler.UpdateTodo(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantErr != "" {
				var errResp model.ErrorResponse
				err := json.Unmarshal(rec.Body.Bytes(), &errResp)
				require.NoError(t, err)
				assert.Equal(t, tc.wantErr, errResp.Error)
				mockService.AssertExpectations(t)
				return
			}

			var gotTodo model.Todo
			err := json.Unmarshal(rec.Body.Bytes(), &gotTodo)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.wantTodo, gotTodo); diff != "" {
				t.Errorf("todo mismatch (-want +got):\n%s", diff)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestDeleteTodo(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		todoID     string
		setupMock  func(m *mockTodoService)
		wantStatus int
		wantBody   model.DeleteTodoResponse
		wantErr    string
	}{
		"success": {
			todoID: "123",
			setupMock: func(m *mockTodoService) {
				m.On("DeleteTodo", mock.Anything, int64(123)).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   model.DeleteTodoResponse{Message: "todo deleted", ID: 123},
		},
		"not found": {
			todoID: "999",
			setupMock: func(m *mockTodoService) {
				m.On("DeleteTodo", mock.Anything, int64(999)).Return(repository.ErrTodoNotFound{ID: 999})
			},
			wantStatus: http.StatusNotFound,
			wantErr:    "todo not found",
		},
		"service error": {
			todoID: "123",
			setupMock: func(m *mockTodoService) {
				m.On("DeleteTodo", mock.Anything, int64(123)).Return(errors.New("database error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    "error deleting todo",
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mockService := new(mockTodoService)
			tc.setupMock(mockService)

			handler := NewTodoHandler(mockService, discardLogger())

			req := httptest.NewRequest(http.MethodDelete, "/api/todos/"+tc.todoID, nil)
			req.SetPathValue("id", tc.todoID)
			rec := httptest.NewRecorder()

			handler.DeleteTodo(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantErr != "" {
				var errResp model.ErrorResponse
				err := json.Unmarshal(rec.Body.Bytes(), &errResp)
				require.NoError(t, err)
				assert.Equal(t, tc.wantErr, errResp.Error)
			} else {
				var gotBody model.DeleteTodoResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gotBody))
				assert.Equal(t, tc.wantBody, gotBody)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestHelperFunctions tests the writeJSON and writeError functions
func TestHelperFunctions(t *testing.T) {
	t.Parallel()

	t.Run("writeJSON", func(t *testing.T) {
		t.Parallel()

		data := map[string]string{"key": "value"}
		rec := httptest.NewRecorder()

		writeJSON(rec, data, http.StatusOK)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, data, result)
	})

	t.Run("writeError", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		errorMsg := "test error"

		writeError(rec, errorMsg, http.StatusBadRequest)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result model.ErrorResponse
		err := json.Unmarshal(rec.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, errorMsg, result.Error)
	})
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
