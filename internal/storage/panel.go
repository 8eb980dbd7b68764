package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.klb.dev/clipd/internal/position"
)

// LoadPanelPosition returns the saved panel position. ok is false when the
// user never moved the panel.
func (db *DB) LoadPanelPosition(ctx context.Context) (position.Saved, bool, error) {
	var s position.Saved
	err := db.conn.QueryRowContext(ctx,
		`SELECT monitor, x, y FROM panel_position WHERE id = 1`,
	).Scan(&s.Monitor, &s.X, &s.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return position.Saved{}, false, nil
	}
	if err != nil {
		return position.Saved{}, false, fmt.Errorf("load panel position: %w", err)
	}
	return s, true, nil
}

// SavePanelPosition replaces the saved panel position.
func (db *DB) SavePanelPosition(ctx context.Context, s position.Saved) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO panel_position (id, monitor, x, y) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET monitor = excluded.monitor, x = excluded.x, y = excluded.y
	`, s.Monitor, s.X, s.Y)
	if err != nil {
		return fmt.Errorf("save panel position: %w", err)
	}
	return nil
}
