package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vmunix/mediacat/internal/catalog"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPosition renders seconds as m:ss or h:mm:ss.
func formatPosition(sec int64) string {
	if sec <= 0 {
		return "-"
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func deref[T any](p *T, empty string) string {
	if p == nil {
		return empty
	}
	return fmt.Sprint(*p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// mediaJSON is the --json shape for catalog entries.
type mediaJSON struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	FilePath      string  `json:"filepath"`
	Category      *string `json:"category"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	EpisodeNumber *int    `json:"episode_number,omitempty"`
	Kind          string  `json:"kind"`
	IsVideo       bool    `json:"is_video"`
	Progress      int64   `json:"progress"`
	Thumb         string  `json:"thumb"`
	Size          *int64  `json:"size,omitempty"`
}

func toMediaJSON(d *catalog.DecoratedMedia) mediaJSON {
	return mediaJSON{
		ID:            d.ID,
		Title:         d.Title,
		FilePath:      d.FilePath,
		Category:      d.Category,
		ParentID:      d.ParentID,
		EpisodeNumber: d.EpisodeNumber,
		Kind:          string(d.Kind),
		IsVideo:       d.IsVideo,
		Progress:      d.Progress,
		Thumb:         d.Thumb,
	}
}

func printMediaTable(w io.Writer, items []*catalog.DecoratedMedia) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No media")
		return
	}
	fmt.Fprintf(w, "%-6s %-40s %-6s %-12s %s\n", "ID", "TITLE", "KIND", "CATEGORY", "PROGRESS")
	for _, d := range items {
		fmt.Fprintf(w, "%-6s %-40s %-6s %-12s %s\n",
			strconv.FormatInt(d.ID, 10),
			truncate(d.Title, 40),
			d.Kind,
			truncate(deref(d.Category, "-"), 12),
			formatPosition(d.Progress),
		)
	}
	fmt.Fprintf(w, "\n%s items\n", humanize.Comma(int64(len(items))))
}
