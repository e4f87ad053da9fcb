package plancache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"reelprep/internal/config"
	"reelprep/internal/logging"
	"reelprep/internal/media/cropdetect"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases are rejected rather than migrated.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Key identifies one file state. A changed size or mtime invalidates every
// cached result for the path.
type Key struct {
	Path         string
	SizeBytes    int64
	ModifiedUnix int64
}

// FileKey derives the cache key for path from the filesystem.
func FileKey(path string) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, fmt.Errorf("stat %s: %w", path, err)
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return Key{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return Key{
		Path:         absolute,
		SizeBytes:    info.Size(),
		ModifiedUnix: info.ModTime().Unix(),
	}, nil
}

// Store caches probe JSON and crop rectangles per file identity, backed by
// SQLite. A nil store is valid and behaves as an always-miss cache.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	statfs statfsFunc
}

// Open initializes or connects to the cache database. It returns nil (and no
// error) when caching is disabled or misconfigured, so callers can treat the
// cache as optional.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, nil
	}
	dir := strings.TrimSpace(cfg.Cache.Dir)
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "plancache.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !locked {
		return nil, errors.New("analysis cache is locked by another reelprep process")
	}

	dbPath := filepath.Join(dir, "plancache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "plancache"),
		statfs: realStatfs,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection and the cache lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'reelprep cache clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// ProbeJSON returns the cached ffprobe payload for key, if any.
func (s *Store) ProbeJSON(ctx context.Context, key Key) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT probe_json FROM probe_results WHERE path = ? AND size_bytes = ? AND modified_unix = ?",
		key.Path, key.SizeBytes, key.ModifiedUnix,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup probe result: %w", err)
	}
	return payload, true, nil
}

// SaveProbe stores the ffprobe payload for key, displacing stale entries for
// the same path.
func (s *Store) SaveProbe(ctx context.Context, key Key, payload []byte) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM probe_results WHERE path = ?", key.Path); err != nil {
		return fmt.Errorf("evict stale probe results: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO probe_results (path, size_bytes, modified_unix, probe_json, created_at) VALUES (?, ?, ?, ?, ?)",
		key.Path, key.SizeBytes, key.ModifiedUnix, payload, now); err != nil {
		return fmt.Errorf("save probe result: %w", err)
	}
	return nil
}

// Crop returns the cached untrimmed crop rectangle for key, if any.
func (s *Store) Crop(ctx context.Context, key Key) (*cropdetect.Geometry, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var g cropdetect.Geometry
	err := s.db.QueryRowContext(ctx,
		"SELECT width, height, x, y FROM crop_results WHERE path = ? AND size_bytes = ? AND modified_unix = ?",
		key.Path, key.SizeBytes, key.ModifiedUnix,
	).Scan(&g.W, &g.H, &g.X, &g.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup crop result: %w", err)
	}
	return &g, true, nil
}

// SaveCrop stores the detected rectangle for key. Callers must store the
// untrimmed detection; trims are reapplied per run.
func (s *Store) SaveCrop(ctx context.Context, key Key, g *cropdetect.Geometry) error {
	if s == nil || g == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM crop_results WHERE path = ?", key.Path); err != nil {
		return fmt.Errorf("evict stale crop results: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO crop_results (path, size_bytes, modified_unix, width, height, x, y, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		key.Path, key.SizeBytes, key.ModifiedUnix, g.W, g.H, g.X, g.Y, now); err != nil {
		return fmt.Errorf("save crop result: %w", err)
	}
	return nil
}

// Clear removes every cached result.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}
	for _, table := range []string{"probe_results", "crop_results"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
