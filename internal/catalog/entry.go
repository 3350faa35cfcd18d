package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	if strings.Contains(errStr, "no such column: m.parent_id") ||
		strings.Contains(errStr, "no such column: parent_id") ||
		strings.Contains(errStr, "no such column: episode_number") {
		return ErrSchemaUnsupported
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner, m *Media, extra ...any) error {
	dest := append([]any{&m.ID, &m.Title, &m.FilePath, &m.Category, &m.ParentID, &m.EpisodeNumber}, extra...)
	return row.Scan(dest...)
}

func addMedia(ctx context.Context, q querier, caps Capabilities, m *Media) error {
	var (
		result sql.Result
		err    error
	)
	if caps.Series {
		result, err = q.ExecContext(ctx, `
			INSERT INTO media (title, filepath, category, parent_id, episode_number)
			VALUES (?, ?, ?, ?, ?)`,
			m.Title, m.FilePath, m.Category, m.ParentID, m.EpisodeNumber,
		)
	} else {
		if m.ParentID != nil || m.EpisodeNumber != nil {
			return fmt.Errorf("insert media: %w", ErrSchemaUnsupported)
		}
		result, err = q.ExecContext(ctx, `
			INSERT INTO media (title, filepath, category) VALUES (?, ?, ?)`,
			m.Title, m.FilePath, m.Category,
		)
	}
	if err != nil {
		return fmt.Errorf("insert media %q: %w", m.FilePath, mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// AddMedia inserts a new media entry. Sets ID on the struct.
// Returns ErrDuplicate if the file path is already catalogued.
func (s *Store) AddMedia(ctx context.Context, m *Media) error {
	caps, err := s.Capabilities(ctx)
	if err != nil {
		return err
	}
	return addMedia(ctx, s.db, caps, m)
}

// AddMedia inserts a new media entry within a transaction.
func (t *Tx) AddMedia(ctx context.Context, m *Media) error {
	return addMedia(ctx, t.tx, t.caps, m)
}

func getMedia(ctx context.Context, q querier, caps Capabilities, id int64) (*Media, error) {
	m := &Media{}
	row := q.QueryRowContext(ctx, "SELECT "+mediaColumns(caps)+" FROM media m WHERE m.id = ?", id)
	if err := scanMedia(row, m); err != nil {
		return nil, fmt.Errorf("get media %d: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// GetMedia retrieves a media entry by ID without decoration.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) GetMedia(ctx context.Context, id int64) (*Media, error) {
	caps, err := s.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	return getMedia(ctx, s.db, caps, id)
}

// GetMedia retrieves a media entry by ID within a transaction.
func (t *Tx) GetMedia(ctx context.Context, id int64) (*Media, error) {
	return getMedia(ctx, t.tx, t.caps, id)
}

func updateMedia(ctx context.Context, q querier, caps Capabilities, m *Media) error {
	if !caps.Series && (m.ParentID != nil || m.EpisodeNumber != nil) {
		return fmt.Errorf("update media %d: %w", m.ID, ErrSchemaUnsupported)
	}
	if m.ParentID != nil {
		if *m.ParentID == m.ID {
			return fmt.Errorf("update media %d: parent is itself: %w", m.ID, ErrConstraint)
		}
		if _, err := getMedia(ctx, q, caps, *m.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("update media %d: parent %d does not exist: %w", m.ID, *m.ParentID, ErrConstraint)
			}
			return err
		}
	}

	var (
		result sql.Result
		err    error
	)
	if caps.Series {
		result, err = q.ExecContext(ctx, `
			UPDATE media SET title = ?, category = ?, parent_id = ?, episode_number = ?
			WHERE id = ?`,
			m.Title, m.Category, m.ParentID, m.EpisodeNumber, m.ID,
		)
	} else {
		result, err = q.ExecContext(ctx, `
			UPDATE media SET title = ?, category = ? WHERE id = ?`,
			m.Title, m.Category, m.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("update media %d: %w", m.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update media %d: %w", m.ID, ErrNotFound)
	}
	return nil
}

// UpdateMedia rewrites the editable fields of an entry (title, category and
// series linkage). The file path is never changed. A parent must exist and
// must not be the entry itself.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) UpdateMedia(ctx context.Context, m *Media) error {
	caps, err := s.Capabilities(ctx)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := updateMedia(ctx, tx, caps, m); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpdateMedia rewrites an entry within a transaction.
func (t *Tx) UpdateMedia(ctx context.Context, m *Media) error {
	return updateMedia(ctx, t.tx, t.caps, m)
}

// Paths returns the set of file paths already in the catalog.
func (s *Store) Paths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT filepath FROM media")
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	paths := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return paths, nil
}

// CountMedia returns the number of catalog entries.
func (s *Store) CountMedia(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM media
		WHERE category IS NOT NULL AND category != ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
