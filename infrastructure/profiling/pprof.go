// Package profiling starts optional pprof and Pyroscope profilers.
package profiling

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/isabella232/tmg-ucm/infrastructure/logger"
)

// Config selects which profilers run.
type Config struct {
	// PprofAddress enables the pprof server when non-empty. Keep it on loopback.
	PprofAddress string `env:"PPROF_ADDRESS" yaml:"pprof_address"`
	// PyroscopeURL enables continuous profiling when non-empty.
	PyroscopeURL string `env:"PYROSCOPE_SERVER_URL" yaml:"pyroscope_url"`
	Environment  string `env:"PYROSCOPE_ENVIRONMENT" yaml:"environment"`
}

// StartPprofServer serves /debug/pprof on cfg.PprofAddress in the background.
// It returns the server so callers can close it, or nil when disabled.
func StartPprofServer(cfg Config, log logger.Logger) *http.Server {
	if cfg.PprofAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: cfg.PprofAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("Starting pprof server", logger.String("address", cfg.PprofAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server stopped", logger.Error(err))
		}
	}()

	return srv
}
