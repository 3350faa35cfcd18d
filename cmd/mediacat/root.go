package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/mediacat/internal/app"
	"github.com/vmunix/mediacat/internal/config"
	"github.com/vmunix/mediacat/internal/logging"
)

var version = "dev"

// rootOptions carries the persistent flags to every subcommand.
type rootOptions struct {
	configPath string
	json       bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "mediacat",
		Short: "Manage a mediacat library",
		Long: `mediacat - command line access to a mediacat catalog

Commands operate directly on the configured database, so they work
whether or not mediacatd is running.

Run 'mediacatd' to start the server daemon.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: discovered)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	cmd.Version = version
	cmd.SetVersionTemplate("mediacat {{.Version}}\n")

	cmd.AddCommand(
		newScanCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newEpisodesCmd(opts),
		newNextCmd(opts),
		newMediaCmd(opts),
		newProgressCmd(opts),
		newUserCmd(opts),
		newEventsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("config: %w", err)
	}
	return cfg, path, nil
}

// open loads the config and wires the catalog. Callers must Close the app.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, _, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), o.logLevel, cfg.Log.Format)
	return app.Open(cmd.Context(), cfg, logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mediacat %s\n", version)
		},
	}
}
