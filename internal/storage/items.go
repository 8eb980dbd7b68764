package storage

import (
	"context"
	"fmt"
	"time"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/history"
)

// SaveHistory replaces the stored history with items, keeping their order.
func (db *DB) SaveHistory(ctx context.Context, items []history.Item) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, position, kind, text, image, width, height, preview, ts, pinned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		c := it.Content
		if _, err := stmt.ExecContext(ctx,
			it.ID, i, string(c.Kind), c.Text, c.Image, c.Width, c.Height,
			it.Preview, it.Timestamp.UnixNano(), it.Pinned,
		); err != nil {
			return fmt.Errorf("save item %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// LoadHistory returns the stored history in saved order. Rows that cannot
// be turned back into items fail with apperr.ErrSerialization.
func (db *DB) LoadHistory(ctx context.Context) ([]history.Item, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, kind, text, image, width, height, preview, ts, pinned
		FROM items
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []history.Item
	for rows.Next() {
		var (
			it     history.Item
			kind   string
			image  []byte
			ts     int64
			pinned bool
		)
		if err := rows.Scan(&it.ID, &kind, &it.Content.Text, &image, &it.Content.Width,
			&it.Content.Height, &it.Preview, &ts, &pinned); err != nil {
			return nil, fmt.Errorf("scan item: %w: %w", apperr.ErrSerialization, err)
		}
		it.Content.Kind = history.Kind(kind)
		it.Content.Image = image
		it.Timestamp = time.Unix(0, ts)
		it.Pinned = pinned
		if err := validate(it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func validate(it history.Item) error {
	switch {
	case it.ID == "":
		return fmt.Errorf("item without id: %w", apperr.ErrSerialization)
	case it.Content.Kind == history.KindImage && len(it.Content.Image) == 0:
		return fmt.Errorf("image item %s has no data: %w", it.ID, apperr.ErrSerialization)
	case it.Content.Kind != history.KindText && it.Content.Kind != history.KindImage:
		return fmt.Errorf("item %s has unknown kind %q: %w", it.ID, it.Content.Kind, apperr.ErrSerialization)
	}
	return nil
}

// CountItems returns the number of stored items.
func (db *DB) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
