package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
)

func TestResolve_KnownEnvironments(t *testing.T) {
	t.Parallel()

	for _, env := range config.Environments() {
		t.Run(env.String(), func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Resolve(env.String())
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, env, cfg.Environment)
			assert.NotEmpty(t, cfg.Middleware)
		})
	}
}

func TestResolve_UnknownEnvironment(t *testing.T) {
	t.Parallel()

	tests := []string{"prod", "dev", "", "Production", "local-ish"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Resolve(name)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, config.ErrUnknownEnvironment)

			var envErr *config.EnvironmentError
			require.True(t, errors.As(err, &envErr))
			assert.Equal(t, name, envErr.Name)
		})
	}
}

func TestParseEnvironment_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	for _, name := range []string{" production\n", "staging ", "Production", "PRODUCTION", ""} {
		_, err := config.ParseEnvironment(name)
		assert.ErrorIs(t, err, config.ErrUnknownEnvironment, "%q", name)
	}

	env, err := config.ParseEnvironment("production")
	require.NoError(t, err)
	assert.Equal(t, config.Production, env)
}

func TestEnvironmentFromEnv_AbsentDefaultsToLocal(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	require.NoError(t, os.Unsetenv(config.EnvVar))

	env, err := config.EnvironmentFromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.Local, env)
}

func TestEnvironmentFromEnv_PresentButBlankIsRejected(t *testing.T) {
	for _, value := range []string{"", "   "} {
		t.Setenv(config.EnvVar, value)

		_, err := config.EnvironmentFromEnv()
		assert.ErrorIs(t, err, config.ErrUnknownEnvironment, "%q", value)
	}
}

func TestEnvironmentFromEnv_PresentButInvalidDoesNotFallBack(t *testing.T) {
	t.Setenv(config.EnvVar, "dev")

	_, err := config.EnvironmentFromEnv()
	assert.ErrorIs(t, err, config.ErrUnknownEnvironment)
}

func TestProfiles_Differ(t *testing.T) {
	t.Parallel()

	local := config.LocalProfile()
	prod := config.ProductionProfile()

	assert.True(t, local.Debug)
	assert.True(t, local.Tasks.Eager)
	assert.False(t, prod.Debug)
	assert.False(t, prod.Tasks.Eager)
	assert.True(t, prod.HasStage(config.StageRateLimit))
	assert.False(t, local.HasStage(config.StageRateLimit))
}

func TestProfiles_AreIndependentValues(t *testing.T) {
	t.Parallel()

	first := config.LocalProfile()
	first.InstalledApps[0] = "mutated"

	second := config.LocalProfile()
	assert.Equal(t, "analytics", second.InstalledApps[0])
}

func TestProfiles_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.LocalProfile().Validate())
	require.NoError(t, config.TestProfile().Validate())

	prod := config.ProductionProfile()
	err := prod.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret_key")

	prod.SecretKey = "a-real-secret"
	assert.NoError(t, prod.Validate())

	prod.Debug = true
	assert.Error(t, prod.Validate())
}
