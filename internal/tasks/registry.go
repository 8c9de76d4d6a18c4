// Package tasks runs named background tasks, either inline or through a
// Redis Stream consumed by workers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownTask is returned when enqueuing or running an unregistered task.
	ErrUnknownTask = errors.New("unknown task")
	// ErrDuplicateTask is returned when a task name is registered twice.
	ErrDuplicateTask = errors.New("task already registered")
	// ErrInvalidSchedule is returned for a task whose cron schedule does not parse.
	ErrInvalidSchedule = errors.New("invalid task schedule")
)

// Handler executes one task.
type Handler func(ctx context.Context, payload map[string]any) error

// Task is a named handler. Names are qualified with the owning app, e.g.
// "analytics.record_event".
type Task struct {
	Name        string
	Description string
	Handler     Handler
	// Schedule is an optional five field cron expression. Scheduled tasks
	// are enqueued by the Scheduler with an empty payload.
	Schedule string
}

// Provider is anything that contributes tasks, usually an installed app.
type Provider interface {
	Name() string
	Tasks() []Task
}

// Registry holds the known tasks. It is filled at startup and read after.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task.
func (r *Registry) Register(t Task) error {
	if t.Name == "" || t.Handler == nil {
		return fmt.Errorf("task %q needs a name and a handler", t.Name)
	}
	if t.Schedule != "" {
		if _, err := cronParser.Parse(t.Schedule); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSchedule, t.Name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name)
	}
	r.tasks[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Autodiscover registers the tasks of every installed app, in install
// order. Installed apps without a provider contribute nothing.
func (r *Registry) Autodiscover(installed []string, providers ...Provider) error {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	for _, app := range installed {
		p, ok := byName[app]
		if !ok {
			continue
		}
		for _, t := range p.Tasks() {
			if err := r.Register(t); err != nil {
				return fmt.Errorf("autodiscover %s: %w", app, err)
			}
		}
	}
	return nil
}

// Lookup returns the named task.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[name]
	return t, ok
}

// Names returns task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Tasks returns all tasks in registration order.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}
