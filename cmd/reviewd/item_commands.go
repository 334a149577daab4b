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

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var includeCompleted bool

	cmd := &cobra.Command{
		Use:   "items <queue>",
		Short: "List a queue's review items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *review.Store, registry *queues.Registry) error {
				q, ok := registry.Find(args[0])
				if !ok {
					return fmt.Errorf("unknown queue %q", args[0])
				}
				service := api.NewQueueService(store, registry)
				items, err := service.Items(cmd.Context(), q, includeCompleted)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, items)
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.SubjectType,
						item.SubjectID,
						yesNo(item.Completed),
						item.CreatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Subject Type", "Subject ID", "Completed", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeCompleted, "all", false, "Include completed items")
	return cmd
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <queue> <subject-type> <subject-id>",
		Short: "Enqueue a subject for review",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *review.Store, registry *queues.Registry) error {
				q, ok := registry.Find(args[0])
				if !ok {
					return fmt.Errorf("unknown queue %q", args[0])
				}
				item, err := store.AddItem(cmd.Context(), q.Name, args[1], args[2])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromItem(item))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued item %d (%s/%s) on queue %s\n",
					item.ID, item.SubjectType, item.SubjectID, item.Queue)
				return nil
			})
		},
	}
}
