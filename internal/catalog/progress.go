package catalog

import (
	"context"
	"fmt"
	"time"
)

// Progress is a user's last reported playback position for one entry.
type Progress struct {
	UserID    int64
	MediaID   int64
	Position  int64 // seconds
	UpdatedAt time.Time
}

// UpsertProgress records a playback position for (userID, mediaID).
// The database enforces one row per pair; the last write wins, including
// positions smaller than the stored one.
func (s *Store) UpsertProgress(ctx context.Context, userID, mediaID, position int64) error {
	if position < 0 {
		return fmt.Errorf("upsert progress: %w: %d", ErrInvalidPosition, position)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_history (user_id, media_id, progress, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, media_id) DO UPDATE SET
			progress = excluded.progress,
			updated_at = excluded.updated_at`,
		userID, mediaID, position, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert progress user=%d media=%d: %w", userID, mediaID, mapSQLiteError(err))
	}
	return nil
}

// GetProgress returns the stored position for (userID, mediaID).
// Returns ErrNotFound if the user never reported progress for the entry.
func (s *Store) GetProgress(ctx context.Context, userID, mediaID int64) (*Progress, error) {
	p := &Progress{UserID: userID, MediaID: mediaID}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(progress, 0), updated_at FROM watch_history
		WHERE user_id = ? AND media_id = ?`, userID, mediaID,
	).Scan(&p.Position, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get progress user=%d media=%d: %w", userID, mediaID, mapSQLiteError(err))
	}
	return p, nil
}

// ListProgress returns every progress row of a user, most recently updated first.
func (s *Store) ListProgress(ctx context.Context, userID int64) ([]*Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT media_id, COALESCE(progress, 0), updated_at FROM watch_history
		WHERE user_id = ?
		ORDER BY updated_at DESC, media_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress user=%d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Progress
	for rows.Next() {
		p := &Progress{UserID: userID}
		if err := rows.Scan(&p.MediaID, &p.Position, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}

// ProgressForUser returns the user's positions keyed by media ID.
func (s *Store) ProgressForUser(ctx context.Context, userID int64) (map[int64]int64, error) {
	list, err := s.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(list))
	for _, p := range list {
		out[p.MediaID] = p.Position
	}
	return out, nil
}
