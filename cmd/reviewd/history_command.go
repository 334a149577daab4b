package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reviewd/internal/api"
	"reviewd/internal/config"
	"reviewd/internal/queues"
	"reviewd/internal/review"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var userFilter string
	var responseFilter string
	var page int

	cmd := &cobra.Command{
		Use:   "history <queue>",
		Short: "Show recorded verdicts for a queue, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *review.Store, registry *queues.Registry) error {
				q, ok := registry.Find(args[0])
				if !ok {
					return fmt.Errorf("unknown queue %q", args[0])
				}
				service := api.NewHistoryService(store)
				result, err := service.Page(cmd.Context(), q, api.HistoryQuery{
					Reviewer: userFilter,
					Response: responseFilter,
					Page:     page,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}

				rows := make([][]string, 0, len(result.Verdicts))
				for _, v := range result.Verdicts {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						strconv.FormatInt(v.ItemID, 10),
						v.SubjectType + "/" + v.SubjectID,
						v.Reviewer,
						v.Response,
						v.CreatedAt,
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Item", "Subject", "Reviewer", "Response", "Recorded"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				fmt.Fprintf(out, "Page %d (%d total verdicts)\n", result.Page, result.Total)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userFilter, "user", "", "Only verdicts by this reviewer")
	cmd.Flags().StringVar(&responseFilter, "response", "", "Only verdicts with this response")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}
