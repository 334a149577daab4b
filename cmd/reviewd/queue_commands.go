package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reviewd/internal/api"
	"reviewd/internal/config"
	"reviewd/internal/queues"
	"reviewd/internal/review"
)

func newQueuesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List configured queues and their item counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *review.Store, registry *queues.Registry) error {
				service := api.NewQueueService(store, registry)
				summaries, err := service.List(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.QueueListResponse{Queues: summaries})
				}

				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						s.Name,
						strings.Join(s.Responses, ", "),
						strconv.Itoa(s.Open),
						strconv.Itoa(s.Completed),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Queue", "Responses", "Open", "Completed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
