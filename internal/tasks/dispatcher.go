package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/circuitbreaker"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/retry"
)

// Dispatcher enqueues tasks. Without a broker it runs them inline, which
// is how local and test profiles avoid needing Redis.
type Dispatcher struct {
	registry *Registry
	broker   *Broker
	breaker  *circuitbreaker.Breaker
	retry    retry.Config
	publish  retry.Config
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBroker sends tasks through the Redis Stream instead of running them inline.
func WithBroker(b *Broker) Option {
	return func(d *Dispatcher) {
		d.broker = b
	}
}

// WithBreaker guards publishing so a dead broker fails callers fast.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(d *Dispatcher) {
		d.breaker = b
	}
}

// WithRetry sets the retry policy used for inline execution.
func WithRetry(cfg retry.Config) Option {
	return func(d *Dispatcher) {
		d.retry = cfg
	}
}

// WithPublishRetry sets how publishing to the broker is retried. The default
// retries network failures and timeouts a few times.
func WithPublishRetry(cfg retry.Config) Option {
	return func(d *Dispatcher) {
		d.publish = cfg
	}
}

// WithClock replaces time.Now for enqueue timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		retry:    RetryPolicy(0, 0),
		publish:  retry.DefaultConfig(),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Eager reports whether tasks run inline.
func (d *Dispatcher) Eager() bool {
	return d.broker == nil
}

// BrokerState reports the publish circuit state, or "" when unguarded.
func (d *Dispatcher) BrokerState() string {
	if d.breaker == nil {
		return ""
	}
	return d.breaker.State().String()
}

// Registry returns the task registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Enqueue schedules the named task and returns its ID. In eager mode the
// task has already finished when Enqueue returns, and its error is returned.
func (d *Dispatcher) Enqueue(ctx context.Context, name string, payload map[string]any) (string, error) {
	if _, ok := d.registry.Lookup(name); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	m := Message{
		ID:         uuid.NewString(),
		Task:       name,
		Payload:    payload,
		EnqueuedAt: d.now().UTC(),
	}

	if d.Eager() {
		normalized, err := roundTrip(payload)
		if err != nil {
			return "", fmt.Errorf("encode payload for %s: %w", name, err)
		}
		m.Payload = normalized

		ctx = logger.WithFields(ctx,
			logger.String("task", name),
			logger.String("task_id", m.ID),
		)
		logger.FromContext(ctx).Debug("Running task inline")
		if err := execute(ctx, d.registry, d.retry, m); err != nil {
			return m.ID, err
		}
		return m.ID, nil
	}

	// The breaker sees one outcome per enqueue, after publish retries.
	publish := func() error {
		return retry.Retry(ctx, d.publish, func() error {
			_, err := d.broker.Publish(ctx, m)
			return err
		})
	}
	if d.breaker != nil {
		if err := d.breaker.Execute(publish); err != nil {
			return "", err
		}
	} else if err := publish(); err != nil {
		return "", err
	}
	d.log.Debug("Task enqueued",
		logger.String("task", name),
		logger.String("task_id", m.ID),
		logger.String("stream", d.broker.Stream()),
	)
	return m.ID, nil
}

// RetryPolicy builds the retry config for task handlers. maxRetries counts
// retries after the first attempt.
func RetryPolicy(maxRetries int, initialDelay time.Duration) retry.Config {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	return retry.Config{
		MaxAttempts:  maxRetries + 1,
		InitialDelay: initialDelay,
		MaxDelay:     time.Minute,
		Multiplier:   2,
		IsRetryable:  retry.AlwaysRetry,
	}
}

// execute runs the task for m under the retry policy.
func execute(ctx context.Context, registry *Registry, policy retry.Config, m Message) error {
	t, ok := registry.Lookup(m.Task)
	if !ok {
		return retry.Permanent(fmt.Errorf("%w: %s", ErrUnknownTask, m.Task))
	}

	err := retry.Retry(ctx, policy, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = retry.Permanent(fmt.Errorf("panic: %v", r))
			}
		}()
		return t.Handler(ctx, m.Payload)
	})
	if err != nil {
		return fmt.Errorf("task %s (%s): %w", m.Task, m.ID, err)
	}
	return nil
}

// roundTrip gives inline handlers the same JSON-shaped payload a worker sees.
func roundTrip(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
