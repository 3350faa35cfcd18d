package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_thumbnailer.go -package=mocks . Thumbnailer

// Thumbnailer returns a stable thumbnail reference for a video entry,
// generating the image on first use.
type Thumbnailer interface {
	Ensure(ctx context.Context, filePath string, mediaID int64) (string, error)
}

// DefaultPlaceholder is the thumbnail reference for entries without a
// generated image.
const DefaultPlaceholder = "/static/thumbs/file.png"

// Reader serves decorated listings, detail lookups and playback navigation.
// It never writes to the catalog.
type Reader struct {
	store       *Store
	thumbs      Thumbnailer // nil disables generation
	placeholder string
	log         *slog.Logger
}

// NewReader creates a reader. An empty placeholder selects DefaultPlaceholder.
func NewReader(store *Store, thumbs Thumbnailer, placeholder string, log *slog.Logger) *Reader {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		store:       store,
		thumbs:      thumbs,
		placeholder: placeholder,
		log:         log,
	}
}

// Placeholder returns the static thumbnail reference.
func (r *Reader) Placeholder() string { return r.placeholder }

// decorate derives the display fields for a row. Thumbnail failures fall
// back to the placeholder and are only logged.
func (r *Reader) decorate(ctx context.Context, m Media, progress int64) *DecoratedMedia {
	kind := KindOf(m.FilePath)
	d := &DecoratedMedia{
		Media:    m,
		Kind:     kind,
		IsVideo:  kind.IsVideo(),
		Progress: progress,
		Thumb:    r.placeholder,
	}
	if !d.IsVideo || r.thumbs == nil {
		return d
	}

	ref, err := r.thumbs.Ensure(ctx, m.FilePath, m.ID)
	if err != nil {
		r.log.Warn("thumbnail unavailable", "media_id", m.ID, "path", m.FilePath, "error", err)
		return d
	}
	d.Thumb = ref
	return d
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// listWhere builds the WHERE clause shared by List and Count. Titles are
// compared in folded form so matching is case-insensitive beyond ASCII.
func listWhere(f MediaFilter) (string, []any) {
	conditions := []string{"1=1"}
	var args []any

	if f.Query != nil && *f.Query != "" {
		conditions = append(conditions, foldFunc+`(m.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(fold(*f.Query))+"%")
	}
	if f.Category != nil && *f.Category != "" {
		conditions = append(conditions, "m.category = ?")
		args = append(args, *f.Category)
	}
	return strings.Join(conditions, " AND "), args
}

// List returns decorated entries matching the filter, newest first. Entries
// without a progress row for filter.UserID report progress 0.
func (r *Reader) List(ctx context.Context, f MediaFilter) ([]*DecoratedMedia, error) {
	caps, err := r.store.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	where, whereArgs := listWhere(f)
	args := append([]any{f.UserID}, whereArgs...)

	query := "SELECT " + mediaColumns(caps) + `, COALESCE(w.progress, 0)
		FROM media m
		LEFT JOIN watch_history w ON w.media_id = m.id AND w.user_id = ?
		WHERE ` + where + `
		ORDER BY m.id DESC`
	switch {
	case f.Limit > 0:
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, max(f.Offset, 0))
	case f.Offset > 0:
		// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", f.Offset)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", mapSQLiteError(err))
	}
	defer func() { _ = rows.Close() }()

	var raw []rawRow
	for rows.Next() {
		var rr rawRow
		if err := scanMedia(rows, &rr.media, &rr.progress); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		raw = append(raw, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	// Rows are closed before decoration so thumbnail generation never holds
	// a connection.
	_ = rows.Close()

	return r.decorateAll(ctx, raw), nil
}

// Count returns how many entries match the filter's query and category,
// ignoring Limit and Offset.
func (r *Reader) Count(ctx context.Context, f MediaFilter) (int, error) {
	where, args := listWhere(f)
	var n int
	err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media m WHERE "+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", mapSQLiteError(err))
	}
	return n, nil
}

type rawRow struct {
	media    Media
	progress int64
}

func (r *Reader) decorateAll(ctx context.Context, raw []rawRow) []*DecoratedMedia {
	out := make([]*DecoratedMedia, 0, len(raw))
	for _, rr := range raw {
		out = append(out, r.decorate(ctx, rr.media, rr.progress))
	}
	return out
}

// Get returns one decorated entry, or nil if no entry has that ID. Progress
// comes only from userID's own history row; a nil userID reports 0.
func (r *Reader) Get(ctx context.Context, id int64, userID *int64) (*DecoratedMedia, error) {
	caps, err := r.store.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	var rr rawRow
	row := r.store.db.QueryRowContext(ctx, "SELECT "+mediaColumns(caps)+`, COALESCE(w.progress, 0)
		FROM media m
		LEFT JOIN watch_history w ON w.media_id = m.id AND w.user_id = ?
		WHERE m.id = ?`, userID, id)
	if err := scanMedia(row, &rr.media, &rr.progress); err != nil {
		if errors.Is(mapSQLiteError(err), ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get media %d: %w", id, err)
	}
	return r.decorate(ctx, rr.media, rr.progress), nil
}

// Episodes returns the entries whose parent is parentID, ordered by episode
// number with unnumbered entries last. Databases without the series columns yield an empty list.
func (r *Reader) Episodes(ctx context.Context, parentID int64) ([]*DecoratedMedia, error) {
	caps, err := r.store.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	if !caps.Series {
		return []*DecoratedMedia{}, nil
	}

	rows, err := r.store.db.QueryContext(ctx, "SELECT "+mediaColumns(caps)+`
		FROM media m
		WHERE m.parent_id = ?
		ORDER BY m.episode_number IS NULL, m.episode_number ASC, m.id ASC`, parentID)
	if err != nil {
		if errors.Is(mapSQLiteError(err), ErrSchemaUnsupported) {
			return []*DecoratedMedia{}, nil
		}
		return nil, fmt.Errorf("list episodes of %d: %w", parentID, err)
	}
	defer func() { _ = rows.Close() }()

	var raw []rawRow
	for rows.Next() {
		var rr rawRow
		if err := scanMedia(rows, &rr.media); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		raw = append(raw, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	_ = rows.Close()

	return r.decorateAll(ctx, raw), nil
}

// Next returns the entry with the smallest ID greater than currentID, or nil
// when currentID is the last one. Ordering is by insertion only; series
// grouping is not considered.
func (r *Reader) Next(ctx context.Context, currentID int64) (*DecoratedMedia, error) {
	caps, err := r.store.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	var m Media
	row := r.store.db.QueryRowContext(ctx, "SELECT "+mediaColumns(caps)+`
		FROM media m
		WHERE m.id > ?
		ORDER BY m.id ASC
		LIMIT 1`, currentID)
	if err := scanMedia(row, &m); err != nil {
		if errors.Is(mapSQLiteError(err), ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("next media after %d: %w", currentID, err)
	}
	return r.decorate(ctx, m, 0), nil
}
