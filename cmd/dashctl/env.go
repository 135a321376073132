package main

import (
	"dashboard/internal/analytics"
	"dashboard/internal/config"
	"dashboard/internal/fetch"
	"log/slog"

	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	dataURL    string
	logLevel   string
	configPath string
}

// environment is what a command needs to talk to the artifact host.
type environment struct {
	cfg    *config.ServiceConfig
	client *fetch.Client
	logger *slog.Logger
}

// setup layers flags over the config file and environment, then builds the
// client. Logs go to stderr so stdout stays clean for --json.
func (g *globalOptions) setup(cmd *cobra.Command) (*environment, error) {
	path := g.configPath
	if path == "" {
		path = config.GetEnv("DASHBOARD_CONFIG", "")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.dataURL != "" {
		cfg.DataBaseURL = g.dataURL
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))

	locator, err := analytics.NewLocator(cfg.DataBaseURL)
	if err != nil {
		return nil, err
	}
	client := fetch.NewClient(locator, fetch.WithLogger(logger))
	return &environment{cfg: cfg, client: client, logger: logger}, nil
}
