package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/mediacat/internal/app"
	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

// lookupUser resolves an optional username to an account ID.
func lookupUser(ctx context.Context, a *app.App, username string) (*int64, error) {
	if username == "" {
		return nil, nil
	}
	u, err := a.Accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return &u.ID, nil
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Catalog new files under the library root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, map[string]int{"added": res.Added, "skipped": res.Skipped, "failed": res.Failed})
			}
			fmt.Fprintf(out, "Scanned %s\n", a.Config.Library.Root)
			fmt.Fprintf(out, "  Added:    %d\n", res.Added)
			fmt.Fprintf(out, "  Skipped:  %d\n", res.Skipped)
			fmt.Fprintf(out, "  Failed:   %d\n", res.Failed)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "    - %v\n", e)
			}
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, _ := cmd.Flags().GetString("query")
			category, _ := cmd.Flags().GetString("category")
			username, _ := cmd.Flags().GetString("user")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			f := catalog.MediaFilter{Limit: limit, Offset: offset}
			if f.UserID, err = lookupUser(ctx, a, username); err != nil {
				return err
			}
			if query != "" {
				f.Query = &query
			}
			if category != "" {
				f.Category = &category
			}

			items, err := a.Reader.List(ctx, f)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.json {
				rows := make([]mediaJSON, len(items))
				for i, d := range items {
					rows[i] = toMediaJSON(d)
				}
				return printJSON(out, rows)
			}
			printMediaTable(out, items)

			if len(items) == 0 && query != "" {
				suggestions, err := a.Reader.Suggest(ctx, query, 5)
				if err != nil {
					return err
				}
				if len(suggestions) > 0 {
					fmt.Fprintln(out, "\nDid you mean:")
					for _, s := range suggestions {
						fmt.Fprintf(out, "  %d  %s\n", s.ID, s.Title)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("query", "q", "", "Filter by title substring")
	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().String("user", "", "Include this user's progress")
	cmd.Flags().IntP("limit", "l", 0, "Maximum number of items (0 = all)")
	cmd.Flags().Int("offset", 0, "Items to skip")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("user")

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			userID, err := lookupUser(ctx, a, username)
			if err != nil {
				return err
			}
			d, err := a.Reader.Get(ctx, id, userID)
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("media %d not found", id)
			}

			m := toMediaJSON(d)
			if info, err := os.Stat(filepath.Join(a.Config.Library.Root, filepath.FromSlash(d.FilePath))); err == nil {
				size := info.Size()
				m.Size = &size
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, m)
			}
			fmt.Fprintf(out, "%s\n", d.Title)
			fmt.Fprintf(out, "  ID:        %d\n", d.ID)
			fmt.Fprintf(out, "  File:      %s\n", d.FilePath)
			fmt.Fprintf(out, "  Kind:      %s\n", d.Kind)
			fmt.Fprintf(out, "  Category:  %s\n", deref(d.Category, "-"))
			if d.ParentID != nil {
				fmt.Fprintf(out, "  Series:    %d (episode %s)\n", *d.ParentID, deref(d.EpisodeNumber, "?"))
			}
			if m.Size != nil {
				fmt.Fprintf(out, "  Size:      %s\n", humanize.IBytes(uint64(*m.Size)))
			} else {
				fmt.Fprintln(out, "  Size:      missing on disk")
			}
			if d.IsVideo {
				fmt.Fprintf(out, "  Thumb:     %s\n", d.Thumb)
			}
			if userID != nil {
				fmt.Fprintf(out, "  Progress:  %s\n", formatPosition(d.Progress))
			}
			return nil
		},
	}
	cmd.Flags().String("user", "", "Include this user's progress")
	return cmd
}

func newEpisodesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes <id>",
		Short: "List episodes of a series entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			items, err := a.Reader.Episodes(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				rows := make([]mediaJSON, len(items))
				for i, d := range items {
					rows[i] = toMediaJSON(d)
				}
				return printJSON(out, rows)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "No episodes")
				return nil
			}
			for _, d := range items {
				fmt.Fprintf(out, "  %3s  %-6d %s\n", deref(d.EpisodeNumber, "-"), d.ID, d.Title)
			}
			return nil
		},
	}
}

func newNextCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next <id>",
		Short: "Show the entry after the given one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			d, err := a.Reader.Next(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if d == nil {
				if opts.json {
					return printJSON(out, nil)
				}
				fmt.Fprintln(out, "No next entry")
				return nil
			}
			if opts.json {
				return printJSON(out, toMediaJSON(d))
			}
			fmt.Fprintf(out, "%d  %s\n", d.ID, d.Title)
			return nil
		},
	}
}

func newMediaCmd(opts *rootOptions) *cobra.Command {
	mediaCmd := &cobra.Command{
		Use:   "media",
		Short: "Edit catalog entries",
	}

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a catalog entry",
		Long: `Change fields of a catalog entry. Only flags that are given are applied.

Examples:
  mediacat media edit 12 --title "Pilot" --parent 10 --episode 1
  mediacat media edit 12 --category ""      # clear the category
  mediacat media edit 12 --clear-series`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			m, err := a.Catalog.GetMedia(ctx, id)
			if err != nil {
				return err
			}
			if err := applyEdit(cmd, m); err != nil {
				return err
			}
			if err := a.Catalog.UpdateMedia(ctx, m); err != nil {
				if errors.Is(err, catalog.ErrSchemaUnsupported) {
					return errors.New("series fields are not enabled for this library")
				}
				return err
			}
			_ = a.Bus.Publish(ctx, events.NewMediaUpdated(m.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Updated media %d\n", m.ID)
			return nil
		},
	}
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("category", "", "New category (empty clears)")
	editCmd.Flags().Int64("parent", 0, "Series entry this belongs to")
	editCmd.Flags().Int("episode", 0, "Episode number")
	editCmd.Flags().Bool("clear-series", false, "Remove parent and episode number")

	mediaCmd.AddCommand(editCmd)
	return mediaCmd
}

// applyEdit copies the flags that were set onto m.
func applyEdit(cmd *cobra.Command, m *catalog.Media) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		title = strings.TrimSpace(title)
		if title == "" {
			return errors.New("title must not be empty")
		}
		m.Title = title
	}
	if flags.Changed("category") {
		c, _ := flags.GetString("category")
		m.Category = nil
		if c != "" {
			m.Category = &c
		}
	}
	if reset, _ := flags.GetBool("clear-series"); reset {
		m.ParentID, m.EpisodeNumber = nil, nil
	}
	if flags.Changed("parent") {
		p, _ := flags.GetInt64("parent")
		m.ParentID = &p
	}
	if flags.Changed("episode") {
		n, _ := flags.GetInt("episode")
		m.EpisodeNumber = &n
	}
	return nil
}
