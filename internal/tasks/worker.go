package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/retry"
)

const (
	defaultGroup        = "workers"
	defaultBlockTimeout = 5 * time.Second
	defaultBatchSize    = 10
	defaultClaimMinIdle = 5 * time.Minute
	errorBackoff        = time.Second
)

// WorkerConfig holds configuration for a Worker.
type WorkerConfig struct {
	Group    string
	Consumer string
	// Block is how long a read waits for new entries. Negative means do not block.
	Block     time.Duration
	BatchSize int64
	// ClaimMinIdle is how long an unacked entry sits before any consumer
	// in the group may take it over.
	ClaimMinIdle time.Duration
	Retry        retry.Config
}

// Worker consumes the task stream with a consumer group.
type Worker struct {
	broker   *Broker
	registry *Registry
	cfg      WorkerConfig
	log      logger.Logger
}

// NewWorker creates a worker. The consumer name defaults to host name plus
// a random suffix.
func NewWorker(broker *Broker, registry *Registry, cfg WorkerConfig, log logger.Logger) *Worker {
	if cfg.Group == "" {
		cfg.Group = defaultGroup
	}
	if cfg.Consumer == "" {
		host, _ := os.Hostname()
		cfg.Consumer = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
	}
	if cfg.Block == 0 {
		cfg.Block = defaultBlockTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.ClaimMinIdle <= 0 {
		cfg.ClaimMinIdle = defaultClaimMinIdle
	}

	return &Worker{
		broker:   broker,
		registry: registry,
		cfg:      cfg,
		log: log.With(
			logger.String("consumer", cfg.Consumer),
			logger.String("group", cfg.Group),
		),
	}
}

// Consumer returns the consumer name.
func (w *Worker) Consumer() string {
	return w.cfg.Consumer
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.broker.EnsureGroup(ctx, w.cfg.Group); err != nil {
		return err
	}

	w.log.Info("Worker started",
		logger.String("stream", w.broker.Stream()),
		logger.Strings("tasks", w.registry.Names()),
	)

	for {
		if ctx.Err() != nil {
			w.log.Info("Worker stopped")
			return nil
		}

		if _, err := w.ProcessBatch(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error("Failed to read tasks", logger.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessBatch handles stale pending entries first, then reads one batch of
// new entries. It returns how many entries were handled.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	handled := 0

	reclaimed, err := w.broker.Reclaim(ctx, w.cfg.Group, w.cfg.Consumer, w.cfg.ClaimMinIdle, w.cfg.BatchSize)
	if err != nil {
		w.log.Warn("Failed to reclaim pending tasks", logger.Error(err))
	}
	for _, d := range reclaimed {
		w.log.Info("Reclaimed pending task", logger.String("stream_id", d.StreamID))
		w.handle(ctx, d)
		handled++
	}
	if ctx.Err() != nil {
		return handled, nil
	}

	deliveries, err := w.broker.Read(ctx, w.cfg.Group, w.cfg.Consumer, w.cfg.BatchSize, w.cfg.Block)
	if err != nil {
		return handled, err
	}

	for _, d := range deliveries {
		w.handle(ctx, d)
		handled++
	}
	return handled, nil
}

func (w *Worker) handle(ctx context.Context, d Delivery) {
	if d.Err != nil {
		w.log.Error("Dropping malformed task message",
			logger.String("stream_id", d.StreamID),
			logger.Error(d.Err),
		)
		w.ack(ctx, d)
		return
	}

	log := w.log.With(
		logger.String("task", d.Message.Task),
		logger.String("task_id", d.Message.ID),
	)

	start := time.Now()
	err := execute(logger.WithContext(ctx, log), w.registry, w.cfg.Retry, d.Message)
	if err != nil {
		if errors.Is(err, retry.ErrContextCancelled) || ctx.Err() != nil {
			// Left pending; another consumer reclaims it after ClaimMinIdle.
			return
		}
		log.Error("Task failed", logger.Error(err), logger.Duration("duration", time.Since(start)))
		if dlErr := w.broker.DeadLetter(ctx, d.Message, err); dlErr != nil {
			log.Error("Failed to dead-letter task", logger.Error(dlErr))
		}
	} else {
		log.Info("Task succeeded", logger.Duration("duration", time.Since(start)))
	}

	w.ack(ctx, d)
}

func (w *Worker) ack(ctx context.Context, d Delivery) {
	if err := w.broker.Ack(ctx, w.cfg.Group, d.StreamID); err != nil {
		w.log.Error("Failed to ack task", logger.String("stream_id", d.StreamID), logger.Error(err))
	}
}
