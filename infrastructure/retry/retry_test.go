package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/retry"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		IsRetryable:  retry.AlwaysRetry,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	err := retry.Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	cause := errors.New("still broken")
	calls := 0
	err := retry.Retry(context.Background(), fastConfig(2), func() error {
		calls++
		return cause
	})

	require.ErrorIs(t, err, retry.ErrMaxAttemptsExceeded)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, 2, calls)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	err := retry.Retry(context.Background(), fastConfig(5), func() error {
		calls++
		return retry.Permanent(errors.New("bad payload"))
	})

	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Retry(ctx, fastConfig(3), func() error { return nil })
	assert.ErrorIs(t, err, retry.ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, retry.DefaultIsRetryable(errors.New("dial tcp: Connection Refused")))
	assert.True(t, retry.DefaultIsRetryable(context.DeadlineExceeded))
	assert.False(t, retry.DefaultIsRetryable(errors.New("validation failed")))
	assert.False(t, retry.DefaultIsRetryable(retry.Permanent(errors.New("i/o timeout"))))
	assert.False(t, retry.DefaultIsRetryable(nil))
}

func TestBackoff_Capped(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, cfg.Backoff(1))
	assert.Equal(t, 2*time.Second, cfg.Backoff(2))
	assert.Equal(t, 3*time.Second, cfg.Backoff(3))
}
