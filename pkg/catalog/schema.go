package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current catalog schema revision.
const SchemaVersion = 1

// Migrate creates (or upgrades) the catalog schema in-place, following the
// teacher's indexstore migration style: an idempotent CREATE TABLE IF NOT
// EXISTS pass inside one transaction, guarded by a schema_meta row.
func Migrate(ctx context.Context, db *sql.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if db == nil {
		return fmt.Errorf("db is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			schema_version INTEGER NOT NULL
		);`,
		`INSERT INTO schema_meta (id, schema_version)
			VALUES (1, 0)
			ON CONFLICT(id) DO NOTHING;`,

		`CREATE TABLE IF NOT EXISTS index_builds (
			build_id TEXT PRIMARY KEY,
			segment_path TEXT NOT NULL,
			field_key TEXT NOT NULL,
			schema_type TEXT NOT NULL,
			variants TEXT NOT NULL,
			indexed_points INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_index_builds_segment ON index_builds(segment_path, field_key);`,
		`CREATE INDEX IF NOT EXISTS idx_index_builds_started_at ON index_builds(started_at);`,

		`CREATE TABLE IF NOT EXISTS payload_block_cache (
			segment_path TEXT NOT NULL,
			field_key TEXT NOT NULL,
			threshold INTEGER NOT NULL,
			block_count INTEGER NOT NULL,
			computed_at TEXT NOT NULL,
			PRIMARY KEY(segment_path, field_key, threshold)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE schema_meta SET schema_version=? WHERE id=1`, SchemaVersion); err != nil {
		return fmt.Errorf("update schema_version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
