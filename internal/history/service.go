package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/repository"
)

// Service answers history queries for the API.
type Service struct {
	runs   repository.RunRepositoryInterface
	alerts repository.AlertRepositoryInterface
}

func NewService(runs repository.RunRepositoryInterface, alerts repository.AlertRepositoryInterface) *Service {
	return &Service{runs: runs, alerts: alerts}
}

func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error) {
	runs, err := s.runs.List(ctx, limit, offset)
	if err != nil {
		return nil, internal(err)
	}
	return runs, nil
}

func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	return run, nil
}

func (s *Service) ListAlerts(ctx context.Context, runID uuid.UUID) ([]domain.AlertRecord, error) {
	alerts, err := s.alerts.ListByRun(ctx, runID)
	if err != nil {
		return nil, internal(err)
	}
	return alerts, nil
}

func (s *Service) Summary(ctx context.Context, since time.Time) (*domain.HistorySummary, error) {
	summary, err := s.runs.Summary(ctx, since)
	if err != nil {
		return nil, internal(err)
	}
	return summary, nil
}

// internal passes catalogue errors through and hides everything else behind
// INTERNAL_ERROR.
func internal(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrInternal.WithError(err)
}
