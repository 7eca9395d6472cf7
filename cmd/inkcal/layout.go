package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inkcal/internal/app"
	"inkcal/internal/source"
	"inkcal/internal/termview"
)

type layoutOptions struct {
	fixture string
	today   string
	view    string
}

func addLayout(topLevel *cobra.Command, root *rootOptions) {
	opts := &layoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the month grid and day list to the terminal",
		Example: `
inkcal layout
inkcal layout --fixture events.yaml --today 2025-01-08
inkcal layout --view days
`,
		Args:      cobra.NoArgs,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.view {
			case "month", "days", "both":
			default:
				return fmt.Errorf("--view must be month, days or both, got %q", opts.view)
			}

			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			now := time.Now
			if opts.today != "" {
				day, err := time.ParseInLocation("2006-01-02", opts.today, loc)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				now = func() time.Time { return day.Add(12 * time.Hour) }
			}

			ctx := context.Background()
			var src source.Source
			if opts.fixture != "" {
				if src, err = source.LoadFile(opts.fixture); err != nil {
					return err
				}
			} else if src, err = buildSource(ctx, cfg, logger); err != nil {
				return err
			}

			svc, err := app.NewService(app.Options{
				Config: cfg,
				Source: src,
				Logger: logger,
				Now:    now,
			})
			if err != nil {
				return err
			}

			p := termview.Printer{Out: cmd.OutOrStdout()}
			if opts.view != "days" {
				page, err := svc.Month(ctx)
				if err != nil {
					return err
				}
				p.Month(page.MonthName, page.Grid)
				logger.Info("month grid", "summary", termview.Summary(page.Grid))
			}
			if opts.view != "month" {
				page, err := svc.Dashboard(ctx)
				if err != nil {
					return err
				}
				p.DayList(page.List)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "YAML file of raw events to lay out instead of the configured sources")
	cmd.Flags().StringVar(&opts.today, "today", "", "Pretend today is this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.view, "view", "both", "Which view to print: month, days or both")

	topLevel.AddCommand(cmd)
}
