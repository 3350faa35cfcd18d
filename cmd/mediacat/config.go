package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediacat/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) > 0 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.LoadOrDefault(opts.configPath)
			out := cmd.OutOrStdout()
			if err != nil {
				var configErr *config.ConfigError
				if errors.As(err, &configErr) {
					printConfigErrors(out, configErr)
					return errors.New("configuration invalid")
				}
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.json {
				masked := *cfg
				if masked.Auth.RootPassword != "" {
					masked.Auth.RootPassword = "********"
				}
				return printJSON(out, masked)
			}
			if path == "" {
				path = "(built-in defaults)"
			}
			fmt.Fprintf(out, "Source:      %s\n", path)
			printConfigSummary(out, cfg)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintln(w)
	}
	if len(e.Errors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Server:      %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	fmt.Fprintf(w, "Database:    %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "Library:     %s (series: %t)\n", cfg.Library.Root, cfg.Library.SeriesEnabled())
	fmt.Fprintf(w, "Thumbnails:  %s -> %s\n", cfg.Thumbnails.Dir, cfg.Thumbnails.URLPrefix)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "Log file:    %s\n", cfg.Log.File)
	}
	rootPw := "generated on first boot"
	if cfg.Auth.RootPassword != "" {
		rootPw = "set"
	}
	fmt.Fprintf(w, "Root pass:   %s\n", rootPw)
}
