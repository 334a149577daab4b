package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reviewd/internal/daemon"
	"reviewd/internal/logging"
	"reviewd/internal/review"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the review daemon (API server + periodic sweeps)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			store, err := review.Open(cfg)
			if err != nil {
				return fmt.Errorf("open review store: %w", err)
			}

			d, err := daemon.New(cfg, store, defaultResolvers(), logger)
			if err != nil {
				store.Close()
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				d.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reviewd listening on %s\n", d.Addr())

			<-runCtx.Done()
			return d.Close()
		},
	}
}
