package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
)

func newWorkerCommand(opts *globalOptions) *cobra.Command {
	var consumer string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume background tasks from the Redis stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := portal.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			w, err := p.NewWorker(consumer)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&consumer, "consumer", "", "consumer name within the group (default host name plus random suffix)")
	return cmd
}
