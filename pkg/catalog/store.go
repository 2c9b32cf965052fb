// Package catalog is an optional, off-hot-path introspection ledger for the
// payload index (spec.md expansion, component K): it records per-field
// index build history and caches payload-block counts, backed by the same
// libsql/sqlite stack the teacher uses for its index store. Wiring it is
// entirely optional — a PayloadIndex opened with a nil *Store runs with a
// no-op catalog. The CatalogDSN setting of internal/config is not read
// anywhere in this module.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config selects where the catalog database lives, mirroring the teacher's
// indexstore.Config.
type Config struct {
	// Path is a local filesystem path to the catalog database. If set, it
	// is converted into a libsql-compatible DSN (file:<path>).
	Path string

	// URL is a libsql/Turso URL, e.g. libsql://your-db.turso.io.
	URL string

	// AuthToken is appended to URL-based DSNs as authToken=... when not
	// already present.
	AuthToken string
}

func buildDSN(cfg Config) (string, error) {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		return addAuthToken(u, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "", errors.New("catalog path or url is required")
	}
	if path == ":memory:" {
		return path, nil
	}

	if strings.HasPrefix(path, "file:") || strings.HasPrefix(path, "libsql:") {
		if strings.HasPrefix(path, "file:") {
			localPath, err := extractFilePath(path)
			if err != nil {
				return "", err
			}
			if err := ensureStoreDir(localPath); err != nil {
				return "", err
			}
		}
		return path, nil
	}

	if err := ensureStoreDir(path); err != nil {
		return "", err
	}

	return "file:" + filepath.Clean(path), nil
}

func addAuthToken(dsn string, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid catalog url: %w", err)
	}
	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func extractFilePath(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid catalog path: %w", err)
	}
	if parsed.Path != "" {
		return strings.TrimPrefix(parsed.Path, "//"), nil
	}
	return strings.TrimPrefix(parsed.Opaque, "//"), nil
}

func ensureStoreDir(path string) error {
	if strings.TrimSpace(path) == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	return nil
}

func configureLocalSQLite(ctx context.Context, db *sql.DB, dsn string) error {
	if db == nil {
		return errors.New("catalog connection is nil")
	}
	if dsn == ":memory:" || !strings.HasPrefix(dsn, "file:") {
		return nil
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var journalMode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	var busyTimeout int
	if err := db.QueryRowContext(ctx, "PRAGMA busy_timeout=5000").Scan(&busyTimeout); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	return nil
}

// Store is the catalog's data-access layer over the build-history and
// block-cache tables.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) a catalog database. A zero Config is invalid;
// callers that don't want a catalog should skip calling Open entirely and
// pass a nil *Store to PayloadIndex.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordBuildStart inserts a started build_id row.
func (s *Store) RecordBuildStart(ctx context.Context, buildID, segmentPath, field, schemaType, variants string, startedAt time.Time) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_builds (build_id, segment_path, field_key, schema_type, variants, indexed_points, started_at, status)
		 VALUES (?, ?, ?, ?, ?, 0, ?, 'running')`,
		buildID, segmentPath, field, schemaType, variants, startedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record build start: %w", err)
	}
	return nil
}

// RecordBuildFinish marks a build_id row as finished, successfully or not.
func (s *Store) RecordBuildFinish(ctx context.Context, buildID string, indexedPoints int, finishedAt time.Time, buildErr error) error {
	if s == nil {
		return nil
	}
	status := "ok"
	var errText any
	if buildErr != nil {
		status = "failed"
		errText = buildErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE index_builds SET indexed_points=?, finished_at=?, status=?, error=? WHERE build_id=?`,
		indexedPoints, finishedAt.UTC().Format(time.RFC3339Nano), status, errText, buildID)
	if err != nil {
		return fmt.Errorf("record build finish: %w", err)
	}
	return nil
}

// CachePayloadBlockCount stores the number of blocks a PayloadBlocks(key,
// threshold) call found, for dashboard/introspection use.
func (s *Store) CachePayloadBlockCount(ctx context.Context, segmentPath, field string, threshold, count int, computedAt time.Time) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payload_block_cache (segment_path, field_key, threshold, block_count, computed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(segment_path, field_key, threshold) DO UPDATE SET
			block_count=excluded.block_count, computed_at=excluded.computed_at`,
		segmentPath, field, threshold, count, computedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("cache payload block count: %w", err)
	}
	return nil
}
