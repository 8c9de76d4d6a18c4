// Package cmd implements the portal command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/api"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	envDir     string
	configPath string
}

// NewRootCommand builds the portal command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "portal",
		Version:       version,
		Short:         "Portal web application",
		Long:          "Serves the portal HTTP API and runs its background task workers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.envDir, "env-dir", config.DefaultEnvDir, "directory holding .env and .env.local")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML overlay (default $CONFIG_PATH or config.yml)")

	root.AddCommand(
		newServeCommand(opts),
		newWorkerCommand(opts),
		newBeatCommand(opts),
		newRoutesCommand(opts),
		newCheckCommand(opts),
		newVersionCommand(version),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

// loadConfig resolves the active profile. Every subcommand calls it before
// building anything else.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{EnvDir: o.envDir, ConfigPath: o.configPath})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Debug,
		Fields: map[string]any{
			"service":     cfg.ServiceName,
			"environment": string(cfg.Environment),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	infralogger.SetDefault(log)
	return log, nil
}

// offlineServer builds the HTTP assembly without contacting Redis, for
// commands that only inspect it.
func offlineServer(ctx context.Context, cfg *config.Config) (*api.Server, error) {
	offline := *cfg
	offline.Tasks.Eager = true

	p, err := portal.New(ctx, &offline, infralogger.NewNop())
	if err != nil {
		return nil, err
	}
	return api.NewServer(p)
}
