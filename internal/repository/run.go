package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/somiljain2006/EverWake/internal/domain"
)

type RunRepository struct {
	pool PgxPool
}

func NewRunRepository(pool PgxPool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Create records a started run. Recording the same run twice is a no-op.
func (r *RunRepository) Create(ctx context.Context, run *domain.RunRecord) error {
	query := `
		INSERT INTO runs (id, trip_id, started_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, run.ID, run.TripID, run.StartedAt)
	if isUniqueViolation(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	return nil
}

// Finish stores the totals of a stopped run.
func (r *RunRepository) Finish(ctx context.Context, id uuid.UUID, endedAt time.Time, durationMs int64, alerts int, reason string) error {
	query := `
		UPDATE runs
		SET ended_at = $2, duration_ms = $3, alerts = $4, stop_reason = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, endedAt, durationMs, alerts, reason)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}

	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error) {
	query := `
		SELECT id, trip_id, started_at, ended_at, duration_ms, alerts, stop_reason, created_at
		FROM runs
		WHERE id = $1
	`

	var run domain.RunRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.TripID,
		&run.StartedAt,
		&run.EndedAt,
		&run.DurationMs,
		&run.Alerts,
		&run.StopReason,
		&run.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run by id: %w", err)
	}

	return &run, nil
}

// List returns runs newest first.
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, trip_id, started_at, ended_at, duration_ms, alerts, stop_reason, created_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.RunRecord{}
	for rows.Next() {
		var run domain.RunRecord
		if err := rows.Scan(
			&run.ID,
			&run.TripID,
			&run.StartedAt,
			&run.EndedAt,
			&run.DurationMs,
			&run.Alerts,
			&run.StopReason,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// Summary aggregates runs started at or after since, together with their
// alerts.
func (r *RunRepository) Summary(ctx context.Context, since time.Time) (*domain.HistorySummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM runs WHERE started_at >= $1),
			(SELECT COALESCE(SUM(duration_ms), 0) FROM runs WHERE started_at >= $1),
			COUNT(a.id),
			COUNT(a.acknowledged_at),
			COALESCE(AVG(a.closed_duration_ms), 0)
		FROM runs r
		JOIN alerts a ON a.run_id = r.id
		WHERE r.started_at >= $1
	`

	summary := domain.HistorySummary{Since: since}
	err := r.pool.QueryRow(ctx, query, since).Scan(
		&summary.Runs,
		&summary.TotalDurationMs,
		&summary.Alerts,
		&summary.AcknowledgedAlerts,
		&summary.AvgClosedMs,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize runs: %w", err)
	}

	return &summary, nil
}

// DeleteOlderThan removes finished runs that ended before cutoff. Their
// alerts go with them.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM runs
		WHERE ended_at IS NOT NULL AND ended_at < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old runs: %w", err)
	}

	return result.RowsAffected(), nil
}
