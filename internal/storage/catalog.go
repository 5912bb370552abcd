package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// catalog indexes saved runs. The full metadata is kept as a JSON payload;
// the other columns exist for ordering and ad-hoc queries.
type catalog struct {
	db *sql.DB
}

func openCatalog(ctx context.Context, path string) (*catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &catalog{db: db}, nil
}

func (c *catalog) Close() error {
	return c.db.Close()
}

func (c *catalog) put(ctx context.Context, meta RunMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, mode, method, created_at, particles, steps, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			mode = excluded.mode,
			method = excluded.method,
			created_at = excluded.created_at,
			particles = excluded.particles,
			steps = excluded.steps,
			payload = excluded.payload
	`, meta.ID, meta.Name, meta.Mode, meta.Method, meta.Timestamp.UnixNano(), meta.Particles, meta.Steps, payload)
	return err
}

func (c *catalog) list(ctx context.Context) ([]RunMetadata, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, payload FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			method TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			particles INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
