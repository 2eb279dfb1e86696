package cmd

import (
	"github.com/templui/promoproof/internal/config"
	"github.com/templui/promoproof/internal/logger"
)

// loadConfig reads the same environment as the server and sets up text
// logging for interactive use.
func loadConfig(verbose bool) *config.Config {
	cfg := config.Load()
	logger.Init(logger.Options{
		App:       cfg.AppName,
		Debug:     verbose || cfg.Verbose,
		SentryDSN: cfg.SentryDSN,
	})
	return cfg
}
