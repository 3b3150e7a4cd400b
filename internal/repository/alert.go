package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
)

type AlertRepository struct {
	pool PgxPool
}

func NewAlertRepository(pool PgxPool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Create records a raised alert. The run must already exist.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.AlertRecord) error {
	query := `
		INSERT INTO alerts (id, run_id, raised_at, closed_duration_ms)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, alert.ID, alert.RunID, alert.RaisedAt, alert.ClosedDurationMs)
	if isForeignKeyViolation(err) {
		return domain.ErrRunNotFound.WithError(err)
	}
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	return nil
}

// Acknowledge stamps the first acknowledgement; later ones are ignored.
func (r *AlertRepository) Acknowledge(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE alerts
		SET acknowledged_at = $2
		WHERE id = $1 AND acknowledged_at IS NULL
	`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}

	return nil
}

// ListByRun returns the alerts of a run in raise order.
func (r *AlertRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.AlertRecord, error) {
	query := `
		SELECT id, run_id, raised_at, closed_duration_ms, acknowledged_at
		FROM alerts
		WHERE run_id = $1
		ORDER BY raised_at ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.AlertRecord{}
	for rows.Next() {
		var a domain.AlertRecord
		if err := rows.Scan(&a.ID, &a.RunID, &a.RaisedAt, &a.ClosedDurationMs, &a.AcknowledgedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}

	return alerts, nil
}
