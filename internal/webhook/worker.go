package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/somiljain2006/EverWake/internal/domain"
)

var ErrQueueFull = errors.New("webhook queue full")

type WorkerConfig struct {
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt
	BaseDelay time.Duration
	QueueSize int
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		QueueSize:   256,
	}
}

// Worker is an event sink that forwards alert and break cues to the webhook
// endpoint, retrying failed deliveries with exponential backoff.
type Worker struct {
	service *Service
	config  WorkerConfig
	queue   chan Job
	logger  *slog.Logger
	done    chan struct{}
}

func NewWorker(service *Service, config WorkerConfig, logger *slog.Logger) *Worker {
	defaults := DefaultWorkerConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = defaults.BaseDelay
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}

	return &Worker{
		service: service,
		config:  config,
		queue:   make(chan Job, config.QueueSize),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Publish enqueues cue events. Other event types are ignored.
func (w *Worker) Publish(_ context.Context, event domain.Event) error {
	if !event.Cue() {
		return nil
	}

	payload, err := json.Marshal(newEventPayload(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	select {
	case w.queue <- Job{EventID: event.ID, EventType: event.Type, Payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			if n := len(w.queue); n > 0 {
				w.logger.Warn("webhook worker stopped with pending deliveries", "pending", n)
			} else {
				w.logger.Info("webhook worker stopped")
			}
			return
		case job := <-w.queue:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) process(ctx context.Context, job Job) {
	for {
		job.Attempts++

		err := w.service.Send(ctx, job.EventType, job.Payload)
		if err == nil {
			w.logger.Debug("webhook delivered",
				"event_id", job.EventID,
				"event_type", job.EventType,
				"attempts", job.Attempts,
			)
			return
		}

		if job.Attempts >= w.config.MaxAttempts {
			w.logger.Warn("webhook delivery failed",
				"event_id", job.EventID,
				"event_type", job.EventType,
				"attempts", job.Attempts,
				"error", err,
			)
			return
		}

		delay := w.config.BaseDelay * time.Duration(1<<(job.Attempts-1))
		w.logger.Info("webhook delivery scheduled for retry",
			"event_id", job.EventID,
			"attempts", job.Attempts,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
