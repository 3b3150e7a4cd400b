package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing store. It is nil when history is disabled.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(HealthResponse{Status: "ready", Database: "disabled"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:   "unavailable",
			Database: "unreachable",
		})
	}

	return c.JSON(HealthResponse{Status: "ready", Database: "ok"})
}
