package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// MonitorService is the control surface of the drowsiness monitor.
type MonitorService interface {
	Snapshot() domain.Snapshot
	Start(ctx context.Context) (domain.Snapshot, error)
	Stop(ctx context.Context) (domain.Snapshot, error)
	Acknowledge(ctx context.Context) (domain.Snapshot, error)
	ResetTrip(ctx context.Context) (domain.Snapshot, error)
}

type MonitorHandler struct {
	monitor MonitorService
	logger  *slog.Logger
}

func NewMonitorHandler(monitor MonitorService, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, logger: logger}
}

// Get GET /v1/monitor
func (h *MonitorHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.monitor.Snapshot())
}

// Start POST /v1/monitor/start - no-op when already running
func (h *MonitorHandler) Start(c *fiber.Ctx) error {
	return h.run(c, h.monitor.Start)
}

// Stop POST /v1/monitor/stop - idempotent
func (h *MonitorHandler) Stop(c *fiber.Ctx) error {
	return h.run(c, h.monitor.Stop)
}

// Acknowledge POST /v1/monitor/acknowledge
func (h *MonitorHandler) Acknowledge(c *fiber.Ctx) error {
	return h.run(c, h.monitor.Acknowledge)
}

// ResetTrip POST /v1/monitor/trip/reset
func (h *MonitorHandler) ResetTrip(c *fiber.Ctx) error {
	return h.run(c, h.monitor.ResetTrip)
}

func (h *MonitorHandler) run(c *fiber.Ctx, op func(context.Context) (domain.Snapshot, error)) error {
	snap, err := op(c.UserContext())
	if err != nil {
		return monitorError(err)
	}
	return c.JSON(snap)
}
