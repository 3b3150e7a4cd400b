package history

import (
	"context"
	"log/slog"
	"time"
)

// RunPruner deletes runs past their retention.
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner periodically removes finished runs older than the retention window.
type Pruner struct {
	runs      RunPruner
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
	done      chan struct{}
}

func NewPruner(runs RunPruner, retention, interval time.Duration, logger *slog.Logger) *Pruner {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Pruner{
		runs:      runs,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start prunes once, then on every interval until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("history pruner started", "retention", p.retention, "interval", p.interval)

	p.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("history pruner stopped")
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) Done() <-chan struct{} {
	return p.done
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := p.now().Add(-p.retention)

	deleted, err := p.runs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to prune history", "cutoff", cutoff, "error", err)
		return
	}
	if deleted > 0 {
		p.logger.Info("pruned history", "runs", deleted, "cutoff", cutoff)
	}
}
