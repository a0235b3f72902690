package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

// Profiler wraps a running Pyroscope profiler. A nil *Profiler is valid.
type Profiler struct {
	p *pyroscope.Profiler
}

// StartPyroscope starts continuous profiling when cfg.PyroscopeURL is set and
// returns (nil, nil) otherwise.
func StartPyroscope(cfg Config, service, version string, log logger.Logger) (*Profiler, error) {
	if cfg.PyroscopeURL == "" {
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "tmg-ucm." + service,
		ServerAddress:   cfg.PyroscopeURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": env,
			"version":     version,
			"hostname":    host,
			"go_version":  runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("Pyroscope profiling started",
		logger.String("server", cfg.PyroscopeURL),
		logger.String("environment", env),
	)
	return &Profiler{p: p}, nil
}

// Stop flushes and stops the profiler.
func (p *Profiler) Stop() error {
	if p == nil || p.p == nil {
		return nil
	}
	return p.p.Stop()
}
