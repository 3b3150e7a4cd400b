package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200

	defaultSummaryDays = 7
	maxSummaryDays     = 365
)

type HistoryService interface {
	ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error)
	ListAlerts(ctx context.Context, runID uuid.UUID) ([]domain.AlertRecord, error)
	Summary(ctx context.Context, since time.Time) (*domain.HistorySummary, error)
}

// HistoryHandler serves persisted runs. With a nil service every route
// answers HISTORY_DISABLED.
type HistoryHandler struct {
	service HistoryService
}

func NewHistoryHandler(service HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

type ListRunsResponse struct {
	Runs   []domain.RunRecord `json:"runs"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type ListAlertsResponse struct {
	RunID  uuid.UUID            `json:"run_id"`
	Alerts []domain.AlertRecord `json:"alerts"`
}

// ListRuns GET /v1/history/runs
func (h *HistoryHandler) ListRuns(c *fiber.Ctx) error {
	if h.service == nil {
		return domain.ErrHistoryDisabled
	}

	limit, err := queryInt(c, "limit", defaultRunsLimit)
	if err != nil || limit < 1 || limit > maxRunsLimit {
		return domain.ErrValidationFailed.WithError(errors.New("limit must be between 1 and 200"))
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return domain.ErrValidationFailed.WithError(errors.New("offset must not be negative"))
	}

	runs, err := h.service.ListRuns(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}

	return c.JSON(ListRunsResponse{Runs: runs, Limit: limit, Offset: offset})
}

// GetRun GET /v1/history/runs/:id
func (h *HistoryHandler) GetRun(c *fiber.Ctx) error {
	if h.service == nil {
		return domain.ErrHistoryDisabled
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	run, err := h.service.GetRun(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(run)
}

// ListAlerts GET /v1/history/runs/:id/alerts
func (h *HistoryHandler) ListAlerts(c *fiber.Ctx) error {
	if h.service == nil {
		return domain.ErrHistoryDisabled
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	if _, err := h.service.GetRun(c.UserContext(), id); err != nil {
		return err
	}

	alerts, err := h.service.ListAlerts(c.UserContext(), id)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []domain.AlertRecord{}
	}

	return c.JSON(ListAlertsResponse{RunID: id, Alerts: alerts})
}

// Summary GET /v1/history/summary - totals since ?since (RFC 3339) or over
// the last ?days days
func (h *HistoryHandler) Summary(c *fiber.Ctx) error {
	if h.service == nil {
		return domain.ErrHistoryDisabled
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("since must be an RFC 3339 timestamp"))
		}
		since = t
	} else {
		days, err := queryInt(c, "days", defaultSummaryDays)
		if err != nil || days < 1 || days > maxSummaryDays {
			return domain.ErrValidationFailed.WithError(errors.New("days must be between 1 and 365"))
		}
		since = time.Now().UTC().AddDate(0, 0, -days)
	}

	summary, err := h.service.Summary(c.UserContext(), since)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
