package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reviewd/internal/config"
	"reviewd/internal/engine"
	"reviewd/internal/logging"
	"reviewd/internal/queues"
	"reviewd/internal/review"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep <queue>",
		Short: "Run a disqualification sweep against the store directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *review.Store, registry *queues.Registry) error {
				q, ok := registry.Find(args[0])
				if !ok {
					return fmt.Errorf("unknown queue %q", args[0])
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logging: %w", err)
				}
				sweeper := engine.NewSweeper(store, defaultResolvers(), logger)
				summary, err := sweeper.Run(cmd.Context(), q)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, summary)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Swept %s: scanned=%d disqualified=%d reclaimed=%d failed=%d in %s\n",
					q.Name, summary.Scanned, summary.Disqualified, summary.Reclaimed,
					summary.Failed, summary.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}
