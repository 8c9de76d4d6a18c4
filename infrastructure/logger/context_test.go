package logger_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
)

func fileLogger(t *testing.T) (logger.Logger, string) {
	t.Helper()

	out := filepath.Join(t.TempDir(), "out.log")
	l, err := logger.New(logger.Config{Level: "debug", OutputPaths: []string{out}})
	require.NoError(t, err)
	return l, out
}

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	l, _ := fileLogger(t)
	ctx := logger.WithContext(context.Background(), l)

	assert.Same(t, l, logger.FromContext(ctx))
}

func TestFromContext_FallbackIsUsable(t *testing.T) {
	t.Parallel()

	got := logger.FromContext(context.Background())
	require.NotNil(t, got)
	assert.NotPanics(t, func() {
		got.Info("info message")
		got.Warn("warn message", logger.String("key", "value"))
	})
}

func TestWithFields_EnrichesContextLogger(t *testing.T) {
	t.Parallel()

	l, out := fileLogger(t)
	ctx := logger.WithContext(context.Background(), l.With(logger.String("request_id", "abc123")))
	ctx = logger.WithFields(ctx, logger.String("task", "analytics.record_event"))

	logger.FromContext(ctx).Info("task ran")
	_ = l.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"abc123"`)
	assert.Contains(t, string(data), `"task":"analytics.record_event"`)
}

func TestNewNop_DiscardsAndChains(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	assert.NotPanics(t, func() {
		nop.With(logger.Int("n", 1)).Error("ignored")
	})
	require.NoError(t, nop.Sync())
}
