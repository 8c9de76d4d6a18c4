package tasks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, name string, _ map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return "id-" + name, nil
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

func TestRegistry_RejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	err := tasks.NewRegistry().Register(tasks.Task{Name: "a.bad", Handler: noop, Schedule: "every tuesday"})
	require.ErrorIs(t, err, tasks.ErrInvalidSchedule)
}

func TestScheduler_LoadOnlyScheduledTasks(t *testing.T) {
	t.Parallel()

	reg := tasks.NewRegistry()
	require.NoError(t, reg.Register(tasks.Task{Name: "a.plain", Handler: noop}))
	require.NoError(t, reg.Register(tasks.Task{Name: "a.hourly", Handler: noop, Schedule: "0 * * * *"}))

	s := tasks.NewScheduler(reg, &recordingEnqueuer{}, logger.NewNop())
	n, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "loading twice must not duplicate entries")

	_, ok := s.Next("a.hourly")
	assert.True(t, ok)
	_, ok = s.Next("a.plain")
	assert.False(t, ok)
}

func TestScheduler_Trigger(t *testing.T) {
	t.Parallel()

	enq := &recordingEnqueuer{}
	s := tasks.NewScheduler(tasks.NewRegistry(), enq, logger.NewNop())

	require.NoError(t, s.Trigger(context.Background(), "a.report"))
	assert.Equal(t, []string{"a.report"}, enq.names)
}

func TestScheduler_RunFiresUntilCancelled(t *testing.T) {
	t.Parallel()

	reg := tasks.NewRegistry()
	require.NoError(t, reg.Register(tasks.Task{Name: "a.tick", Handler: noop, Schedule: "@every 1s"}))

	enq := &recordingEnqueuer{}
	s := tasks.NewScheduler(reg, enq, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return enq.count() > 0 }, 5*time.Second, 50*time.Millisecond)

	next, ok := s.Next("a.tick")
	assert.True(t, ok)
	assert.False(t, next.IsZero())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
