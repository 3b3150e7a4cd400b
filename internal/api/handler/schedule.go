package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/interval"
)

type ScheduleService interface {
	Snapshot() domain.Snapshot
	ConfigureSchedule(ctx context.Context, cfg interval.Config) (domain.Snapshot, error)
	StartBreak(ctx context.Context) (domain.Snapshot, error)
}

type ScheduleHandler struct {
	service ScheduleService
}

func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// ScheduleRequest configures the focus/break cycle. Omitted durations are
// "not set" and leave the scheduler inert.
type ScheduleRequest struct {
	FocusSeconds     *int `json:"focus_seconds"`
	BreakSeconds     *int `json:"break_seconds"`
	ManualBreakStart bool `json:"manual_break_start"`
}

// Get GET /v1/schedule
func (h *ScheduleHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.service.Snapshot().Schedule)
}

// Update PUT /v1/schedule
func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	var req ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	cfg := interval.Config{
		FocusSeconds:     durationSeconds(req.FocusSeconds),
		BreakSeconds:     durationSeconds(req.BreakSeconds),
		ManualBreakStart: req.ManualBreakStart,
	}

	snap, err := h.service.ConfigureSchedule(c.UserContext(), cfg)
	if err != nil {
		return monitorError(err)
	}
	return c.JSON(snap.Schedule)
}

// StartBreak POST /v1/schedule/break/start
func (h *ScheduleHandler) StartBreak(c *fiber.Ctx) error {
	snap, err := h.service.StartBreak(c.UserContext())
	if err != nil {
		return monitorError(err)
	}
	return c.JSON(snap.Schedule)
}

// durationSeconds keeps an explicit zero distinct from "not set" so that it
// is rejected like any other non-positive duration.
func durationSeconds(v *int) int {
	switch {
	case v == nil:
		return 0
	case *v <= 0:
		return -1
	default:
		return *v
	}
}
