package history

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/repository"
)

// Recorder is an event sink that persists runs and alerts.
type Recorder struct {
	runs   repository.RunRepositoryInterface
	alerts repository.AlertRepositoryInterface
	logger *slog.Logger
}

func NewRecorder(runs repository.RunRepositoryInterface, alerts repository.AlertRepositoryInterface, logger *slog.Logger) *Recorder {
	return &Recorder{
		runs:   runs,
		alerts: alerts,
		logger: logger.With("component", "history"),
	}
}

func (r *Recorder) Publish(ctx context.Context, event domain.Event) error {
	switch data := event.Data.(type) {
	case domain.SessionStarted:
		return r.runs.Create(ctx, &domain.RunRecord{
			ID:        event.RunID,
			TripID:    event.TripID,
			StartedAt: data.StartedAt,
		})

	case domain.SessionStopped:
		err := r.runs.Finish(ctx, event.RunID, data.EndedAt, domain.Millis(data.DurationSeconds), data.Alerts, data.Reason)
		if errors.Is(err, domain.ErrRunNotFound) {
			// The start was never recorded (database down at the time); keep
			// the totals anyway.
			r.logger.Warn("finishing unrecorded run", "run_id", event.RunID)
			if err := r.runs.Create(ctx, &domain.RunRecord{
				ID:        event.RunID,
				TripID:    event.TripID,
				StartedAt: data.StartedAt,
			}); err != nil {
				return err
			}
			return r.runs.Finish(ctx, event.RunID, data.EndedAt, domain.Millis(data.DurationSeconds), data.Alerts, data.Reason)
		}
		return err

	case domain.AlertRaised:
		return r.alerts.Create(ctx, &domain.AlertRecord{
			ID:               data.AlertID,
			RunID:            event.RunID,
			RaisedAt:         data.RaisedAt,
			ClosedDurationMs: domain.Millis(data.ClosedSeconds),
		})

	case domain.AlertAcknowledged:
		if data.AlertID == uuid.Nil {
			return nil
		}
		return r.alerts.Acknowledge(ctx, data.AlertID, data.AcknowledgedAt)
	}

	return nil
}
