package cmd_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/cmd"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
)

// run executes the CLI against an empty env dir and a missing YAML overlay.
func run(t *testing.T, appEnv string, args ...string) (string, error) {
	t.Helper()

	for _, key := range []string{"ENV_FILE", "CONFIG_PATH", "SECRET_KEY", "MIDDLEWARE", "INSTALLED_APPS"} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvVar, appEnv)

	dir := t.TempDir()
	root := cmd.NewRootCommand("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--env-dir", dir,
		"--config", filepath.Join(dir, "config.yml"),
	}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck_KnownEnvironment(t *testing.T) {
	out, err := run(t, "test", "check")

	require.NoError(t, err)
	assert.Contains(t, out, "environment: test")
	assert.Contains(t, out, "timing")
	assert.Contains(t, out, "no issues")
}

func TestCheck_UnknownEnvironmentFails(t *testing.T) {
	out, err := run(t, "qa", "check")

	require.ErrorIs(t, err, config.ErrUnknownEnvironment)
	assert.NotContains(t, out, "no issues")
}

func TestServe_UnknownEnvironmentFailsBeforeServing(t *testing.T) {
	_, err := run(t, "prod", "serve")

	assert.ErrorIs(t, err, config.ErrUnknownEnvironment)
}

func TestRoutes(t *testing.T) {
	out, err := run(t, "test", "routes")

	require.NoError(t, err)
	assert.Contains(t, out, "/api/v1/add")
	assert.Contains(t, out, "api:v1:index")
	assert.Contains(t, out, "api:v1:analytics:events")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "test", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "portal 1.2.3")
}

func TestCheck_ListsScheduledTasks(t *testing.T) {
	out, err := run(t, "test", "check")

	require.NoError(t, err)
	assert.Contains(t, out, "analytics.report")
	assert.Contains(t, out, "0 * * * *")
}

func TestBeat_RefusesEagerTasks(t *testing.T) {
	_, err := run(t, "test", "beat")

	assert.ErrorIs(t, err, portal.ErrEagerMode)
}

func TestBeat_UnknownEnvironmentFails(t *testing.T) {
	_, err := run(t, "qa", "beat")

	assert.ErrorIs(t, err, config.ErrUnknownEnvironment)
}
