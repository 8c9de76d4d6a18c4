package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
)

func newBeatCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "beat",
		Short: "Enqueue scheduled tasks on their cron schedules",
		Long: "Runs the periodic task scheduler. Run exactly one beat process per " +
			"deployment; workers consume what it enqueues. With eager tasks the " +
			"scheduler runs inside serve instead.",
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

			if p.Dispatcher.Eager() {
				return portal.ErrEagerMode
			}
			return p.NewScheduler().Run(ctx)
		},
	}
}
