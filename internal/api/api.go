// package api provides the HTTP API for the application
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cirocosta/todo-api/internal/health"
	"github.com/cirocosta/todo-api/internal/model"
	"github.com/cirocosta/todo-api/pkg/router"
)

// TodoService defines the minimal interface needed by the API
type TodoService interface {
	// ListTodos returns all todos, filtered by status when status is not empty
	ListTodos(ctx context.Context, status string) ([]model.Todo, error)

	// GetTodo returns a todo by ID
	GetTodo(ctx context.Context, id int64) (model.Todo, error)

	// CreateTodo creates a new todo
	CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error)

	// UpdateTodo updates an existing todo
	UpdateTodo(ctx context.Context, id int64, req model.UpdateTodoRequest) (model.Todo, error)

	// DeleteTodo deletes a todo
	DeleteTodo(ctx context.Context, id int64) error
}

// HealthChecker probes the backing store
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Options carries the service metadata and HTTP settings of the router
type Options struct {
	Name           string
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// API holds the components needed to register routes
type API struct {
	router        *router.DocRouter
	todoHandler   *TodoHandler
	healthHandler *HealthHandler
}

// NewRouter creates a new router with all routes configured
func NewRouter(todoService TodoService, checker HealthChecker, opts Options) *router.DocRouter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := router.NewDocRouter(opts.Name,
		"CRUD service for to-do items backed by PostgreSQL",
		opts.Version,
	)

	r.Use(
		requestIDMiddleware,
		loggerMiddleware(opts.Logger),
		recovererMiddleware(opts.Logger),
		corsMiddleware(opts.AllowedOrigins),
	)

	api := &API{
		router:        r,
		todoHandler:   NewTodoHandler(todoService, opts.Logger),
		healthHandler: NewHealthHandler(checker, opts.Name, opts.Version, opts.Logger),
	}

	api.registerRoutes()

	return r
}

// registerRoutes configures all API routes with documentation
func (api *API) registerRoutes() {
	errSchema := &model.ErrorResponse{}

	api.router.WithTag("Todos", "Operations on to-do items").
		WithTag("Core", "Service metadata and health")

	api.router.RegisterResponse("StoreFailure", map[string]any{
		"description": "The store failed or is unreachable; retry after the Retry-After delay",
		"headers": map[string]any{
			"Retry-After": map[string]any{
				"description": "Seconds to wait before retrying, set when the store is unavailable",
				"schema":      map[string]any{"type": "integer"},
			},
		},
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
			},
		},
	})

	api.router.Route(http.MethodGet, "/", api.healthHandler.Info).
		WithName("Service Info").
		WithDescription("Name, version and the endpoint map of the service").
		WithResponse(&model.InfoResponse{}).
		WithTags("Core").
		Register()

	api.router.Route(http.MethodGet, "/health", api.healthHandler.Health).
		WithName("Health Check").
		WithDescription("Probes the store once; 503 when it is unreachable").
		WithResponse(&model.HealthResponse{}).
		WithErrorResponse("503", "Service Unavailable", &model.HealthResponse{},
			router.Example{
				ContentType: "application/json",
				Value:       `{"status": "unhealthy", "error": "database unavailable", "timestamp": "2024-01-01T00:00:00Z"}`,
			}).
		WithTags("Core").
		Register()

	api.router.Route(http.MethodGet, "/health/live", api.healthHandler.Live).
		WithName("Liveness").
		WithDescription("Reports that the process is serving requests without touching the store").
		WithResponse(&model.HealthResponse{}).
		WithTags("Core").
		Register()

	api.router.Route(http.MethodGet, "/openapi.json", api.openAPI).
		WithName("OpenAPI Document").
		WithDescription("OpenAPI 3 description of this API").
		WithTags("Core").
		Register()

	api.router.Route(http.MethodGet, "/api/todos", api.todoHandler.ListTodos).
		WithName("List Todos").
		WithDescription("Get all todo items ordered by id, optionally filtered by status").
		WithQueryParam("status", "Only return todos with this status", statusNames()...).
		WithResponse(&model.TodoListResponse{}).
		WithErrorResponse("400", "Bad Request", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error": "status must be one of: pending, in-progress, completed"}`,
			}).
		WithTags("Todos").
		Register()

	api.router.Route(http.MethodPost, "/api/todos", api.todoHandler.CreateTodo).
		WithName("Create Todo").
		WithDescription("Create a new todo item").
		WithRequest(&model.CreateTodoRequest{}).
		WithResponse(&model.Todo{}).
		WithStatus(http.StatusCreated).
		WithErrorResponse("400", "Bad Request", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error": "title is required"}`,
			},
			router.Example{
				ContentType: "application/json",
				Value:       `{"error": "invalid request format"}`,
			}).
		WithTags("Todos").
		Register()

	api.router.Route(http.MethodGet, "/api/todos/{id}", api.todoHandler.GetTodo).
		WithName("Get Todo").
		WithDescription("Get a todo item by ID").
		WithIntParam("id").
		WithResponse(&model.Todo{}).
		WithErrorResponse("404", "Not Found", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error": "todo not found"}`,
			}).
		WithTags("Todos").
		Register()

	api.router.Route(http.MethodPut, "/api/todos/{id}", api.todoHandler.UpdateTodo).
		WithName("Update Todo").
		WithDescription("Update the supplied fields of a todo item").
		WithIntParam("id").
		WithRequest(&model.UpdateTodoRequest{}).
		WithResponse(&model.Todo{}).
		WithErrorResponse("400", "Bad Request", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error": "no fields to update"}`,
			}).
		WithErrorResponse("404", "Not Found", errSchema).
		WithTags("Todos").
		Register()

	api.router.Route(http.MethodDelete, "/api/todos/{id}", api.todoHandler.DeleteTodo).
		WithName("Delete Todo").
		WithDescription("Delete a todo item permanently").
		WithIntParam("id").
		WithResponse(&model.DeleteTodoResponse{}).
		WithErrorResponse("404", "Not Found", errSchema).
		WithTags("Todos").
		Register()

	for _, route := range api.router.GetRoutes() {
		if route.Path == "/api/todos" || route.Path == "/api/todos/{id}" {
			api.router.RegisterRouteResponse(route.Path, route.Method, "500", "StoreFailure")
		}
	}
}

// openAPI serves the generated document of this router
func (api *API) openAPI(w http.ResponseWriter, r *http.Request) {
	data, err := api.router.OpenAPIJSON()
	if err != nil {
		writeError(w, "error generating openapi document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func statusNames() []string {
	names := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		names[i] = string(s)
	}
	return names
}
