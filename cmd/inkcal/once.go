package main

import (
	"context"
	"errors"
	"net"

	"github.com/spf13/cobra"
)

type onceOptions struct {
	renderOnly bool
	dump       string
}

func addOnce(topLevel *cobra.Command, root *rootOptions) {
	opts := &onceOptions{}

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run one fetch, render and display cycle and exit",
		Example: `
inkcal once
inkcal once --render-only
inkcal once --dump ./frames
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(logger)
			defer cancel()

			st, err := newStack(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}

			// The capture step needs the pages served, so bring up a private
			// server on an ephemeral loopback port for the duration of the run.
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			base, err := localURL(cfg, ln)
			if err != nil {
				ln.Close()
				return err
			}

			srvCtx, stop := context.WithCancel(ctx)
			srvErr := make(chan error, 1)
			go func() { srvErr <- st.server.Serve(srvCtx, ln) }()

			display := openDisplay(cfg, opts.dump, logger)
			if opts.renderOnly {
				display = nil
			}
			runErr := st.cycle(base, display).Run(ctx)

			stop()
			return errors.Join(runErr, <-srvErr)
		},
	}

	cmd.Flags().BoolVar(&opts.renderOnly, "render-only", false, "Capture pages only; do not touch display hardware")
	cmd.Flags().StringVar(&opts.dump, "dump", "", "Write black.bin/red.bin planes to this directory instead of the panel")

	topLevel.AddCommand(cmd)
}
