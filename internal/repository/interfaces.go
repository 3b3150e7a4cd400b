package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use, so tests can
// substitute pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunRepositoryInterface defines operations for run data access
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *domain.RunRecord) error
	Finish(ctx context.Context, id uuid.UUID, endedAt time.Time, durationMs int64, alerts int, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error)
	List(ctx context.Context, limit, offset int) ([]domain.RunRecord, error)
	Summary(ctx context.Context, since time.Time) (*domain.HistorySummary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertRepositoryInterface defines operations for alert data access
type AlertRepositoryInterface interface {
	Create(ctx context.Context, alert *domain.AlertRecord) error
	Acknowledge(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.AlertRecord, error)
}
