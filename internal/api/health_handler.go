package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cirocosta/todo-api/internal/model"
)

// HealthHandler serves the metadata and health endpoints
type HealthHandler struct {
	checker HealthChecker
	name    string
	version string
	logger  *slog.Logger
	now     func() time.Time
}

// NewHealthHandler creates a handler reporting on the store through checker
func NewHealthHandler(checker HealthChecker, name, version string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		checker: checker,
		name:    name,
		version: version,
		logger:  logger,
		now:     time.Now,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Check(r.Context())
	if !report.Healthy {
		h.logger.WarnContext(r.Context(), "health check failed",
			"error", report.Err,
			"request_id", RequestID(r.Context()),
		)
		writeJSON(w, model.HealthResponse{
			Status:    "unhealthy",
			Error:     "database unavailable",
			Timestamp: report.CheckedAt,
		}, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, model.HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: report.CheckedAt,
	}, http.StatusOK)
}

// Live handles GET /health/live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, model.HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
	}, http.StatusOK)
}

// Info handles GET /
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, model.InfoResponse{
		Name:    h.name,
		Version: h.version,
		Endpoints: map[string]string{
			"health":        "GET /health",
			"openapi":       "GET /openapi.json",
			"get_all_todos": "GET /api/todos",
			"get_todo":      "GET /api/todos/{id}",
			"create_todo":   "POST /api/todos",
			"update_todo":   "PUT /api/todos/{id}",
			"delete_todo":   "DELETE /api/todos/{id}",
		},
	}, http.StatusOK)
}
