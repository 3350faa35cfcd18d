// internal/handlers/thumbnail.go
package handlers

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/vmunix/mediacat/internal/catalog"
	"github.com/vmunix/mediacat/internal/events"
)

// ThumbnailHandler generates thumbnails for uploaded videos as soon as they
// are catalogued. Scanned files are pre-warmed by the scanner itself.
type ThumbnailHandler struct {
	*BaseHandler
	thumbs  catalog.Thumbnailer
	workers int

	inflight sync.Map // map[int64]struct{}
}

// NewThumbnailHandler creates a handler running at most workers generations at once.
func NewThumbnailHandler(bus *events.Bus, thumbs catalog.Thumbnailer, workers int, logger *slog.Logger) *ThumbnailHandler {
	if workers < 1 {
		workers = 1
	}
	return &ThumbnailHandler{
		BaseHandler: NewBaseHandler(bus, logger),
		thumbs:      thumbs,
		workers:     workers,
	}
}

func (h *ThumbnailHandler) Name() string { return "thumbnail" }

// Start processes media.added events until ctx is canceled or the bus closes.
// In-flight generations finish before Start returns.
func (h *ThumbnailHandler) Start(ctx context.Context) error {
	added := h.Bus().Subscribe(100, events.EventMediaAdded)
	defer h.Bus().Unsubscribe(added)

	p := pool.New().WithMaxGoroutines(h.workers)
	defer p.Wait()

	for {
		select {
		case e, ok := <-added:
			if !ok {
				return nil
			}
			ma, isAdded := e.(*events.MediaAdded)
			if !isAdded || !h.wants(ma) {
				continue
			}
			p.Go(func() { h.generate(ctx, ma) })
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *ThumbnailHandler) wants(e *events.MediaAdded) bool {
	return e.Source == events.SourceUpload && catalog.KindOf(e.FilePath).IsVideo()
}

func (h *ThumbnailHandler) generate(ctx context.Context, e *events.MediaAdded) {
	if _, loaded := h.inflight.LoadOrStore(e.MediaID, struct{}{}); loaded {
		return
	}
	defer h.inflight.Delete(e.MediaID)

	if _, err := h.thumbs.Ensure(ctx, e.FilePath, e.MediaID); err != nil {
		h.Logger().Warn("thumbnail generation failed", "media_id", e.MediaID, "path", e.FilePath, "error", err)
		return
	}
	h.Logger().Debug("thumbnail ready", "media_id", e.MediaID)
}
