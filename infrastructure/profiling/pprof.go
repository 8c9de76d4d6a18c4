package profiling

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
)

const pprofReadHeaderTimeout = 5 * time.Second

// PprofHandler serves the standard /debug/pprof/ endpoints on its own mux.
func PprofHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartPprofServer serves pprof on localhost until ctx is done. It returns
// nil without starting anything when pprof is disabled.
func StartPprofServer(ctx context.Context, cfg Config, log logger.Logger) *http.Server {
	if !cfg.Pprof {
		return nil
	}
	cfg.SetDefaults()

	// Localhost only; profiles expose internals.
	srv := &http.Server{
		Addr:              net.JoinHostPort("localhost", cfg.PprofPort),
		Handler:           PprofHandler(),
		ReadHeaderTimeout: pprofReadHeaderTimeout,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	return srv
}
