package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
)

func newProgressCmd(opts *rootOptions) *cobra.Command {
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Playback positions",
	}

	setCmd := &cobra.Command{
		Use:   "set <user> <media-id> <seconds>",
		Short: "Record a playback position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaID, err := parseID(args[1])
			if err != nil {
				return err
			}
			pos, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position: %s", args[2])
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			userID, err := lookupUser(ctx, a, args[0])
			if err != nil {
				return err
			}
			if _, err := a.Catalog.GetMedia(ctx, mediaID); err != nil {
				return err
			}
			if err := a.Catalog.UpsertProgress(ctx, *userID, mediaID, pos); err != nil {
				if errors.Is(err, catalog.ErrInvalidPosition) {
					return fmt.Errorf("position must not be negative")
				}
				return err
			}
			_ = a.Bus.Publish(ctx, events.NewProgressUpdated(*userID, mediaID, pos))
			fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s on %d: %s\n", args[0], mediaID, formatPosition(pos))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list <user>",
		Short: "List a user's playback positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			userID, err := lookupUser(ctx, a, args[0])
			if err != nil {
				return err
			}
			rows, err := a.Catalog.ListProgress(ctx, *userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				type row struct {
					MediaID   int64  `json:"media_id"`
					Progress  int64  `json:"progress"`
					UpdatedAt string `json:"updated_at"`
				}
				items := make([]row, len(rows))
				for i, p := range rows {
					items[i] = row{p.MediaID, p.Position, p.UpdatedAt.Format(time.RFC3339)}
				}
				return printJSON(out, items)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No progress recorded")
				return nil
			}
			fmt.Fprintf(out, "%-8s %-10s %s\n", "MEDIA", "POSITION", "UPDATED")
			for _, p := range rows {
				fmt.Fprintf(out, "%-8d %-10s %s\n", p.MediaID, formatPosition(p.Position), formatTimeAgo(p.UpdatedAt))
			}
			return nil
		},
	}

	progressCmd.AddCommand(setCmd, listCmd)
	return progressCmd
}
