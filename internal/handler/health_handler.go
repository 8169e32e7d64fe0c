package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and catalog connectivity.
type HealthHandler struct {
	db      Pinger
	appName string
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, appName, version string) *HealthHandler {
	return &HealthHandler{db: db, appName: appName, version: version}
}

// Register sets up the health route.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
}

// Health pings the catalog database.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", fiber.StatusOK
	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		status, code = "degraded", fiber.StatusServiceUnavailable
		dbStatus = err.Error()
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"app":      h.appName,
		"version":  h.version,
		"database": dbStatus,
	})
}
