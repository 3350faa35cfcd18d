// Package thumbnail extracts still frames from video files with ffmpeg and
// caches them on disk.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// ErrGenerate indicates ffmpeg did not produce a thumbnail.
var ErrGenerate = errors.New("thumbnail generation failed")

// Defaults applied by New for zero Config fields.
const (
	DefaultURLPrefix = "/static/thumbs/videos"
	DefaultFFmpeg    = "ffmpeg"
	DefaultSeek      = "00:00:05"
	DefaultTimeout   = 15 * time.Second
)

// Runner executes an external command. It exists so tests can stand in for ffmpeg.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 512 {
			out = out[len(out)-512:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Config for the generator.
type Config struct {
	LibraryRoot string        // video paths are resolved against this
	Dir         string        // cache directory for generated images
	URLPrefix   string        // public prefix of returned references
	FFmpeg      string        // ffmpeg binary
	Seek        string        // timestamp of the extracted frame
	Timeout     time.Duration // per-generation bound
}

// Generator produces one JPEG per media ID and never regenerates it.
type Generator struct {
	fs    afero.Fs
	cfg   Config
	run   Runner
	group singleflight.Group
	log   *slog.Logger
}

// New creates a generator writing to the OS filesystem.
func New(cfg Config, log *slog.Logger) *Generator {
	return newGenerator(afero.NewOsFs(), cfg, execRunner, log)
}

func newGenerator(fs afero.Fs, cfg Config, run Runner, log *slog.Logger) *Generator {
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = DefaultURLPrefix
	}
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = DefaultFFmpeg
	}
	if cfg.Seek == "" {
		cfg.Seek = DefaultSeek
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{fs: fs, cfg: cfg, run: run, log: log}
}

// Ref returns the public reference for a media ID's thumbnail.
func (g *Generator) Ref(mediaID int64) string {
	return path.Join(g.cfg.URLPrefix, fileName(mediaID))
}

// Dir returns the cache directory.
func (g *Generator) Dir() string { return g.cfg.Dir }

func fileName(mediaID int64) string {
	return strconv.FormatInt(mediaID, 10) + ".jpg"
}

// Ensure returns the thumbnail reference for a video, running ffmpeg only if
// the image is not cached yet. Concurrent calls for the same ID share a run.
// filePath is relative to the library root.
func (g *Generator) Ensure(ctx context.Context, filePath string, mediaID int64) (string, error) {
	out := filepath.Join(g.cfg.Dir, fileName(mediaID))
	ref := g.Ref(mediaID)

	if ok, _ := afero.Exists(g.fs, out); ok {
		return ref, nil
	}

	_, err, _ := g.group.Do(out, func() (any, error) {
		// Another caller may have finished while we waited on the group.
		if ok, _ := afero.Exists(g.fs, out); ok {
			return nil, nil
		}
		return nil, g.generate(ctx, filepath.Join(g.cfg.LibraryRoot, filepath.FromSlash(filePath)), out)
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (g *Generator) generate(ctx context.Context, src, out string) error {
	if err := g.fs.MkdirAll(g.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := g.run(ctx, g.cfg.FFmpeg,
		"-y",
		"-ss", g.cfg.Seek,
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		out,
	)
	if err == nil {
		if ok, _ := afero.Exists(g.fs, out); !ok {
			err = errors.New("no output written")
		}
	}
	if err != nil {
		if rmErr := g.fs.Remove(out); rmErr != nil && !os.IsNotExist(rmErr) {
			g.log.Warn("remove partial thumbnail", "path", out, "error", rmErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrGenerate, src, err)
	}

	g.log.Debug("thumbnail generated", "source", src, "output", out, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
