package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/circuitbreaker"
)

var errDown = errors.New("down")

func fail() error { return errDown }
func ok() error   { return nil }

func TestBreaker_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var transitions []string

	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		Timeout:          10 * time.Second,
		Now:              func() time.Time { return now },
		OnStateChange: func(from, to circuitbreaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	require.ErrorIs(t, b.Execute(fail), errDown)
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	require.ErrorIs(t, b.Execute(fail), errDown)
	assert.Equal(t, circuitbreaker.StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(11 * time.Second)
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, circuitbreaker.StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 1,
		Timeout:          time.Second,
		Now:              func() time.Time { return now },
	})

	_ = b.Execute(fail)
	now = now.Add(2 * time.Second)
	_ = b.Execute(fail)

	assert.Equal(t, circuitbreaker.StateOpen, b.State())

	b.Reset()
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2})

	_ = b.Execute(fail)
	_ = b.Execute(ok)
	_ = b.Execute(fail)

	assert.Equal(t, circuitbreaker.StateClosed, b.State())
}
