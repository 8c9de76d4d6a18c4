package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
)

// PyroscopeProfiler holds the Pyroscope profiler instance
type PyroscopeProfiler struct {
	profiler *pyroscope.Profiler
}

// Tags describes the running process for Pyroscope.
type Tags struct {
	Service     string
	Environment string
	Version     string
}

// PyroscopeConfig builds the profiler settings.
func PyroscopeConfig(cfg Config, tags Tags) pyroscope.Config {
	cfg.SetDefaults()

	version := tags.Version
	if version == "" {
		version = "unknown"
	}

	return pyroscope.Config{
		ApplicationName: tags.Service,
		ServerAddress:   cfg.PyroscopeURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": tags.Environment,
			"version":     version,
			"hostname":    hostname(),
			"go_version":  runtime.Version(),
		},
	}
}

// StartPyroscope starts continuous profiling. It returns nil, nil when
// disabled.
func StartPyroscope(cfg Config, tags Tags, log logger.Logger) (*PyroscopeProfiler, error) {
	if !cfg.Pyroscope {
		return nil, nil
	}

	pc := PyroscopeConfig(cfg, tags)
	profiler, err := pyroscope.Start(pc)
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}

	log.Info("Pyroscope continuous profiling started",
		logger.String("application", pc.ApplicationName),
		logger.String("server", pc.ServerAddress),
	)
	return &PyroscopeProfiler{profiler: profiler}, nil
}

// Stop gracefully stops the Pyroscope profiler
func (p *PyroscopeProfiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
