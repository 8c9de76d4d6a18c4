package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
)

// cronParser accepts standard five field expressions and descriptors such
// as @hourly or @every 10m.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Enqueuer is what the scheduler hands due tasks to. *Dispatcher satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload map[string]any) (string, error)
}

// Scheduler enqueues tasks that declare a Schedule.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	enqueuer Enqueuer
	log      logger.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*schedulerOptions)

type schedulerOptions struct {
	location *time.Location
}

// WithLocation sets the time zone schedules are evaluated in. Default UTC.
func WithLocation(loc *time.Location) SchedulerOption {
	return func(o *schedulerOptions) {
		o.location = loc
	}
}

// NewScheduler creates a scheduler over the registry's scheduled tasks.
func NewScheduler(registry *Registry, enqueuer Enqueuer, log logger.Logger, opts ...SchedulerOption) *Scheduler {
	o := schedulerOptions{location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(o.location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		registry: registry,
		enqueuer: enqueuer,
		log:      log,
		entries:  make(map[string]cron.EntryID),
	}
}

// Load adds every scheduled task not yet added and returns how many are
// scheduled. Enqueues triggered later use ctx.
func (s *Scheduler) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.registry.Tasks() {
		if t.Schedule == "" {
			continue
		}
		if _, ok := s.entries[t.Name]; ok {
			continue
		}

		name := t.Name
		id, err := s.cron.AddFunc(t.Schedule, func() {
			if triggerErr := s.Trigger(ctx, name); triggerErr != nil {
				s.log.Error("Failed to enqueue scheduled task",
					logger.String("task", name),
					logger.Error(triggerErr),
				)
			}
		})
		if err != nil {
			return len(s.entries), fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, name, err)
		}
		s.entries[name] = id
	}
	return len(s.entries), nil
}

// Trigger enqueues a scheduled task immediately.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	id, err := s.enqueuer.Enqueue(ctx, name, map[string]any{})
	if err != nil {
		return err
	}
	s.log.Info("Scheduled task enqueued",
		logger.String("task", name),
		logger.String("task_id", id),
	)
	return nil
}

// Next reports the next run time of a scheduled task. It is zero until Run
// has started the clock.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Run loads the schedules and fires them until ctx is cancelled, then waits
// for running enqueues to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	n, err := s.Load(ctx)
	if err != nil {
		return err
	}

	s.log.Info("Scheduler started", logger.Int("scheduled_tasks", n))
	s.cron.Start()

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
	return nil
}

// cronLogger routes cron's own messages into the portal logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, logger.Error(err), logger.Any("details", keysAndValues))
}
