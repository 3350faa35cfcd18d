// Package server runs the long-lived daemon components.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/mediacat/internal/events"
	"github.com/vmunix/mediacat/internal/handlers"
)

// DefaultShutdownTimeout bounds graceful HTTP shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Config for the runner.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Runner serves HTTP and drains the event bus until its context ends.
type Runner struct {
	config   Config
	handler  http.Handler
	bus      *events.Bus
	handlers []handlers.Handler
	logger   *slog.Logger
}

// NewRunner creates a new runner. bus may be nil.
func NewRunner(cfg Config, handler http.Handler, bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		config:  cfg,
		handler: handler,
		bus:     bus,
		logger:  logger,
	}
}

// AddHandler registers an event handler to run alongside the server.
func (r *Runner) AddHandler(h handlers.Handler) {
	r.handlers = append(r.handlers, h)
}

// Run listens on the configured address and blocks until ctx is canceled
// or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The listener is closed on return.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		r.logger.Info("server stopped")
		return nil
	})

	for _, h := range r.handlers {
		g.Go(func() error {
			r.logger.Debug("handler started", "handler", h.Name())
			if err := h.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s handler: %w", h.Name(), err)
			}
			return nil
		})
	}

	if r.bus != nil {
		ch := r.bus.SubscribeAll(100)
		g.Go(func() error {
			defer r.bus.Unsubscribe(ch)
			r.logEvents(ctx, ch)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) logEvents(ctx context.Context, ch <-chan events.Event) {
	log := r.logger.With("component", "events")
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			log.Debug("event",
				"type", e.EventType(),
				"entity", e.EntityType(),
				"entity_id", e.EntityID(),
			)
		}
	}
}
