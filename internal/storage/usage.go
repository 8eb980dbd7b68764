package storage

import (
	"context"
	"fmt"
	"time"
)

// Usage is how often a picker value (emoji, kaomoji, symbol) was pasted.
type Usage struct {
	Value    string    `json:"value"`
	Kind     string    `json:"kind"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// RecordUsage bumps the counter for value.
func (db *DB) RecordUsage(ctx context.Context, value, kind string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO picker_usage (value, kind, count, last_used) VALUES (?, ?, 1, ?)
		ON CONFLICT(value, kind) DO UPDATE SET count = count + 1, last_used = excluded.last_used
	`, value, kind, at.UnixNano())
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// RecentUsage returns the most recently used values, newest first. An empty
// kind matches every kind.
func (db *DB) RecentUsage(ctx context.Context, kind string, limit int) ([]Usage, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT value, kind, count, last_used
		FROM picker_usage
		WHERE ? = '' OR kind = ?
		ORDER BY last_used DESC, count DESC
		LIMIT ?
	`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		var (
			u    Usage
			last int64
		)
		if err := rows.Scan(&u.Value, &u.Kind, &u.Count, &last); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.LastUsed = time.Unix(0, last)
		out = append(out, u)
	}
	return out, rows.Err()
}
