package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const serviceName = "Diary Desk API"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and banner endpoints.
type HealthHandler struct {
	db          Pinger
	backend     string
	environment string
}

// NewHealthHandler creates a health handler that checks db.
func NewHealthHandler(db Pinger, backend, environment string) *HealthHandler {
	return &HealthHandler{db: db, backend: backend, environment: environment}
}

// HealthResponse reports service and database status.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Database    string `json:"database"`
	Backend     string `json:"backend"`
	Environment string `json:"environment"`
}

// Health godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Service:     serviceName,
		Database:    "Connected",
		Backend:     h.backend,
		Environment: h.environment,
	}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "DEGRADED"
		resp.Database = "Disconnected"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

// Root godoc
// @Summary Service banner
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message":   serviceName + " is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"endpoints": echo.Map{
			"auth":   "/api/auth",
			"notes":  "/api/notes",
			"health": "/health",
			"docs":   "/swagger/index.html",
			"mcp":    "/mcp",
		},
		"availableRoutes": []string{
			"POST /api/auth/createuser - Create new user",
			"POST /api/auth/login - User login",
			"GET /api/auth/getuser - Get user profile",
			"GET /api/notes/fetchallnotes - Get all user notes",
			"POST /api/notes/addnote - Create new note",
		},
	})
}
