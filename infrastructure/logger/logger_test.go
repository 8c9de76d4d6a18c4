package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
)

func TestNew_JSONCarriesInitialFields(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.log")
	l, err := logger.New(logger.Config{
		Level:       "info",
		OutputPaths: []string{out},
		Fields:      map[string]any{"service": "portal"},
	})
	require.NoError(t, err)

	l.Info("hello", logger.String("path", "/api/v1/"))
	_ = l.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"portal"`)
	assert.Contains(t, string(data), `"path":"/api/v1/"`)
}

func TestNew_LevelFiltersLowerEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    string
		wantInfo bool
	}{
		{level: "warn", wantInfo: false},
		{level: "WARNING", wantInfo: false},
		{level: "info", wantInfo: true},
		{level: "verbose", wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(t.TempDir(), "out.log")
			l, err := logger.New(logger.Config{Level: tt.level, OutputPaths: []string{out}})
			require.NoError(t, err)

			l.Debug("debug entry")
			l.Info("info entry")
			l.Warn("warn entry")
			_ = l.Sync()

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "debug entry")
			assert.Equal(t, tt.wantInfo, strings.Contains(string(data), "info entry"))
			assert.Contains(t, string(data), "warn entry")
		})
	}
}

func TestNew_ConsoleFormatIsNotJSON(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "out.log")
	l, err := logger.New(logger.Config{Format: "console", OutputPaths: []string{out}})
	require.NoError(t, err)

	l.Info("plain entry")
	_ = l.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plain entry")
	assert.NotContains(t, string(data), `"msg":`)
}
