package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	v1 "github.com/vmunix/mediacat/internal/api/v1"
	"github.com/vmunix/mediacat/internal/app"
	"github.com/vmunix/mediacat/internal/config"
	"github.com/vmunix/mediacat/internal/handlers"
	"github.com/vmunix/mediacat/internal/logging"
	"github.com/vmunix/mediacat/internal/server"
)

func runServer(configPath string) error {
	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, closer := logging.New(cfg.Server.LogLevel, cfg.Log)
	defer func() { _ = closer.Close() }()
	if path == "" {
		logger.Warn("no config file found, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.EnsureRoot(ctx); err != nil {
		return err
	}

	// The first scan finishes before the server accepts requests.
	res, err := a.Scan(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	logger.Info("initial scan done", "added", res.Added, "skipped", res.Skipped, "failed", res.Failed)

	api, err := v1.New(v1.ServerDeps{
		Catalog:  a.Catalog,
		Reader:   a.Reader,
		Accounts: a.Accounts,
		Scanner:  a.Scanner,
		Bus:      a.Bus,
		EventLog: a.EventLog,
		Fs:       a.Fs,
	}, v1.Config{
		LibraryRoot:    cfg.Library.Root,
		ThumbDir:       cfg.Thumbnails.Dir,
		ThumbURLPrefix: cfg.Thumbnails.URLPrefix,
		Version:        version,
	}, logger.With("component", "api"))
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	logger.Info("server starting",
		"addr", addr,
		"config", path,
		"database", cfg.Database.Path,
		"library", cfg.Library.Root,
		"series", cfg.Library.SeriesEnabled(),
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(server.Config{Addr: addr}, api.Handler(), a.Bus, logger)
	runner.AddHandler(handlers.NewThumbnailHandler(a.Bus, a.Thumbs, cfg.Thumbnails.PrewarmWorkers, logger.With("component", "thumbnail-handler")))
	return runner.Run(ctx)
}
