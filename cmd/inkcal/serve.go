package main

import (
	"context"
	"net"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"inkcal/internal/app"
	appLog "inkcal/internal/log"
)

type serveOptions struct {
	listen     string
	renderOnly bool
	noInitial  bool
}

func addServe(topLevel *cobra.Command, root *rootOptions) {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Web UI and refresh the panel on the configured schedule",
		Example: `
inkcal serve --config ~/.config/inkcal/config.yaml
inkcal serve --listen 0.0.0.0:8080 --render-only
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if opts.listen != "" {
				cfg.Listen = opts.listen
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			st, err := newStack(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				return err
			}
			base, err := localURL(cfg, ln)
			if err != nil {
				ln.Close()
				return err
			}

			display := openDisplay(cfg, "", logger)
			if opts.renderOnly {
				display = nil
			}
			cycle := st.cycle(base, display)

			loc, err := cfg.Location()
			if err != nil {
				ln.Close()
				return err
			}
			cronLog := cronLogger{log: logger.With("component", "scheduler")}
			sched := cron.New(
				cron.WithLocation(loc),
				cron.WithLogger(cronLog),
				cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
			)
			if _, err := sched.AddFunc(cfg.RefreshCron, func() { runCycle(ctx, cycle, logger) }); err != nil {
				ln.Close()
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return st.server.Serve(gctx, ln)
			})
			g.Go(func() error {
				sched.Start()
				logger.Info("refresh scheduled", "cron", cfg.RefreshCron, "timezone", cfg.Timezone)
				if !opts.noInitial {
					go runCycle(gctx, cycle, logger)
				}
				<-gctx.Done()
				<-sched.Stop().Done()
				return nil
			})

			err = g.Wait()
			logger.Info("inkcal exiting")
			return err
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&opts.renderOnly, "render-only", false, "Capture pages only; do not touch display hardware")
	cmd.Flags().BoolVar(&opts.noInitial, "no-initial", false, "Wait for the first scheduled refresh instead of refreshing at startup")

	topLevel.AddCommand(cmd)
}

func runCycle(ctx context.Context, c *app.Cycle, logger *appLog.Logger) {
	if err := c.Run(ctx); err != nil {
		logger.Error("calendar update failed", err)
	}
}

// cronLogger adapts the process logger to cron.Logger.
type cronLogger struct {
	log *appLog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, err, keysAndValues...)
}
