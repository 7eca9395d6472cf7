package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"inkcal/internal/config"
	appLog "inkcal/internal/log"
)

const version = "0.1.0"

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "inkcal",
		Short:         "Calendar dashboard for a tri-color e-paper panel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "/etc/inkcal/config.yaml", "Path to config file")

	addServe(cmd, opts)
	addOnce(cmd, opts)
	addLayout(cmd, opts)
	return cmd
}

// load reads the config file (writing defaults on first run), expands ~ in
// every path it holds and builds the process logger.
func (o *rootOptions) load() (*config.Config, *appLog.Logger, error) {
	path, err := homedir.Expand(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config path %q: %w", o.configPath, err)
	}
	cfg, loadErr := config.Load(path)
	if cfg == nil {
		return nil, nil, fmt.Errorf("load config %s: %w", path, loadErr)
	}
	if cfg.CacheDir, err = homedir.Expand(cfg.CacheDir); err != nil {
		return nil, nil, err
	}
	if cfg.Google.CredentialsFile, err = homedir.Expand(cfg.Google.CredentialsFile); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := appLog.New(os.Stderr, appLog.ParseLevel(cfg.LogLevel))
	logger.Info("inkcal starting", "version", version, "config", path)
	if loadErr != nil {
		// Defaults are still usable when the first-run file cannot be written.
		logger.Error("failed to write default config", loadErr, "config_path", path)
	}
	logger.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"week_start_day", cfg.WeekStartDay,
		"day_view_days", cfg.DayViewDays,
		"ics_count", len(cfg.ICS),
		"google_calendars", len(cfg.Google.Calendars),
		"display_enabled", cfg.Display.Enabled,
	)
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(logger *appLog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
