package catalog

import (
	"context"
	"fmt"
)

// Capabilities describes optional schema features of the connected database.
type Capabilities struct {
	// Series is true when media has parent_id and episode_number columns.
	Series bool
}

// Capabilities probes the media table once and caches the result for the
// lifetime of the Store. Failed probes are not cached.
func (s *Store) Capabilities(ctx context.Context) (Capabilities, error) {
	s.capsMu.Lock()
	defer s.capsMu.Unlock()

	if s.caps != nil {
		return *s.caps, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info('media')")
	if err != nil {
		return Capabilities{}, fmt.Errorf("probe media columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Capabilities{}, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return Capabilities{}, fmt.Errorf("iterate columns: %w", err)
	}
	if !cols["filepath"] {
		return Capabilities{}, fmt.Errorf("probe media columns: media table missing")
	}

	caps := Capabilities{Series: cols["parent_id"] && cols["episode_number"]}
	s.caps = &caps
	return caps, nil
}

// mediaColumns returns the select list for a media row aliased as m.
// Legacy schemas select NULL for the series columns so scans stay uniform.
func mediaColumns(caps Capabilities) string {
	if caps.Series {
		return "m.id, m.title, m.filepath, m.category, m.parent_id, m.episode_number"
	}
	return "m.id, m.title, m.filepath, m.category, NULL, NULL"
}
