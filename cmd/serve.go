package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/profiling"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/api"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
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

			if cfg.Debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			profiling.StartPprofServer(ctx, cfg.Profiling, log)
			profiler, err := profiling.StartPyroscope(cfg.Profiling, profiling.Tags{
				Service:     cfg.ServiceName,
				Environment: string(cfg.Environment),
				Version:     cmd.Root().Version,
			}, log)
			if err != nil {
				log.Warn("Continuous profiling disabled", infralogger.Error(err))
			}
			defer func() { _ = profiler.Stop() }()

			p, err := portal.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			srv, err := api.NewServer(p)
			if err != nil {
				return err
			}

			// Eager tasks keep their state in this process, so scheduled
			// tasks have to fire here too.
			if p.Dispatcher.Eager() {
				go func() {
					if schedErr := p.NewScheduler().Run(ctx); schedErr != nil {
						log.Error("Scheduler stopped", infralogger.Error(schedErr))
					}
				}()
			}

			log.Info("Starting portal",
				infralogger.String("address", cfg.Server.Address()),
				infralogger.Bool("debug", cfg.Debug),
				infralogger.Strings("middleware", srv.Pipeline().Names()),
				infralogger.Bool("tasks_eager", cfg.Tasks.Eager),
			)

			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}
