package main

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
	"github.com/spf13/cobra"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/events"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f accounts.Filter
			f.Query, _ = cmd.Flags().GetString("query")
			role, _ := cmd.Flags().GetString("role")
			f.Role = accounts.Role(role)
			f.Status, _ = cmd.Flags().GetString("status")

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			users, err := a.Accounts.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				type row struct {
					ID       int64  `json:"id"`
					Username string `json:"username"`
					Role     string `json:"role"`
					Active   bool   `json:"active"`
				}
				rows := make([]row, len(users))
				for i, u := range users {
					rows[i] = row{u.ID, u.Username, string(u.Role), u.Active}
				}
				return printJSON(out, rows)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, "No accounts")
				return nil
			}
			fmt.Fprintf(out, "%-6s %-20s %-6s %s\n", "ID", "USERNAME", "ROLE", "STATUS")
			for _, u := range users {
				status := accounts.StatusActive
				if !u.Active {
					status = accounts.StatusDisabled
				}
				fmt.Fprintf(out, "%-6d %-20s %-6s %s\n", u.ID, u.Username, u.Role, status)
			}
			return nil
		},
	}
	listCmd.Flags().StringP("query", "q", "", "Filter by username substring")
	listCmd.Flags().String("role", "", "Filter by role (user, admin, root)")
	listCmd.Flags().String("status", "", "Filter by status (active, disabled)")

	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Long:  "Create an account. Without --password a random one is generated and printed once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			pw, _ := cmd.Flags().GetString("password")
			generated := pw == ""
			if generated {
				var err error
				if pw, err = password.Generate(20, 4, 0, false, true); err != nil {
					return fmt.Errorf("generate password: %w", err)
				}
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			ctx := cmd.Context()

			u, err := a.Accounts.Create(ctx, args[0], pw, accounts.Role(role))
			if err != nil {
				return err
			}
			_ = a.Bus.Publish(ctx, events.NewUserCreated(u.ID, u.Username, string(u.Role)))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			if generated {
				fmt.Fprintf(out, "Password: %s\n", pw)
			}
			return nil
		},
	}
	addCmd.Flags().String("role", string(accounts.RoleUser), "Role (user, admin)")
	addCmd.Flags().String("password", "", "Password (default: generated)")

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable an account",
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

			u, err := a.Accounts.ToggleActive(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "disabled"
			if u.Active {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %q %s\n", u.Username, state)
			return nil
		},
	}

	userCmd.AddCommand(listCmd, addCmd, toggleCmd)
	return userCmd
}
