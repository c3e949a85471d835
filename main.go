package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelageech/gameserv/config"
	"github.com/pelageech/gameserv/metrics"
	"github.com/pelageech/gameserv/server"
)

const logPrefix = "gameserv"

func main() {
	os.Exit(Main())
}

// Main runs the server and returns the process exit code. It only
// returns when the server can't start or stops with an error.
func Main() int {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	logger.SetPrefix(logPrefix)

	if len(os.Args) > 1 {
		if os.Args[1] == "help" && len(os.Args) == 2 {
			config.EnvHelp(os.Stdout)
			return 0
		}
		logger.Error("No arguments are accepted, configure with environment variables", "args", os.Args[1:])
		config.EnvHelp(os.Stderr)
		return 2
	}

	cfg, err := config.NewEnvReader(logger.Warn).ReadServerConfig()
	if err != nil {
		logger.Error("Configuration error", "err", err)
		return 1
	}

	var m *metrics.Metrics
	if cfg.MetricsPort != 0 {
		m = metrics.New()
		go m.Observe(context.Background())

		ms := server.NewMetricsServer(cfg.MetricsPort, m, logger)
		go func() {
			logger.Info("Metrics server started", "addr", ms.Addr)
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server stopped", "err", err)
			}
		}()
	}

	srv := server.New(server.NewConfig(cfg.Port, cfg.Root), logger, m, os.Stdout)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server stopped", "err", err)
		return 1
	}
	return 0
}
