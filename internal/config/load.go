package config

import (
	"fmt"
	"path/filepath"
	"strings"

	infraconfig "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/config"
)

const (
	// DefaultEnvDir is where .env files are looked up.
	DefaultEnvDir = "env"
	// DefaultConfigPath is the optional YAML overlay shared by all profiles.
	DefaultConfigPath = "config.yml"
)

// LoadOptions controls where Load looks for files.
type LoadOptions struct {
	// EnvDir holds .env and .env.local. Defaults to DefaultEnvDir.
	EnvDir string
	// ConfigPath is the shared YAML overlay. Defaults to CONFIG_PATH or
	// DefaultConfigPath. A sibling file named config.<environment>.yml is
	// applied after it when present.
	ConfigPath string
}

// Load resolves the active profile: .env files, then APP_ENV, then the
// profile constructor, YAML overlays, env overrides and validation. Any error
// is fatal for the process.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvDir == "" {
		opts.EnvDir = DefaultEnvDir
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = infraconfig.GetConfigPath(DefaultConfigPath)
	}

	if err := infraconfig.LoadEnvFiles(opts.EnvDir); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	env, err := EnvironmentFromEnv()
	if err != nil {
		return nil, err
	}

	cfg, err := ProfileFor(env)
	if err != nil {
		return nil, err
	}

	for _, path := range overlayPaths(opts.ConfigPath, env) {
		if err := infraconfig.Overlay(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := infraconfig.ApplyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.Environment = env
	cfg.Server.SetDefaults()
	cfg.Logging.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

// overlayPaths returns config.yml followed by config.<env>.yml.
func overlayPaths(base string, env Environment) []string {
	ext := filepath.Ext(base)
	specific := strings.TrimSuffix(base, ext) + "." + string(env) + ext
	return []string{base, specific}
}
