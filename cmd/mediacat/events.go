package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rows, err := a.EventLog.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to fetch events: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No events")
				return nil
			}

			fmt.Fprintf(out, "Recent Events (%d):\n\n", len(rows))
			fmt.Fprintf(out, "  %-16s %-20s %-15s\n", "TIME", "TYPE", "ENTITY")
			fmt.Fprintln(out, "  "+strings.Repeat("-", 55))
			for _, e := range rows {
				entity := fmt.Sprintf("%s/%d", e.EntityType, e.EntityID)
				fmt.Fprintf(out, "  %-16s %-20s %-15s\n", formatTimeAgo(e.OccurredAt), e.EventType, entity)
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	return cmd
}
