package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DatabaseName is the file created inside the data directory.
const DatabaseName = "docqa.db"

// Store is a SQLite database holding docqa's persistent bookkeeping.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data/docqa.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)

	// WAL lets the HTTP server read markers while an upload writes one.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EmbeddingCache returns an EmbeddingCache backed by this store.
// Closing the cache closes the store.
func (s *Store) EmbeddingCache() driven.EmbeddingCache {
	return &cacheStore{store: s}
}

// migrate applies every NNN_name.up.sql newer than the recorded schema version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(content); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Cache Marker Store ====================

// cacheStore implements driven.EmbeddingCache.
type cacheStore struct {
	store *Store
}

var _ driven.EmbeddingCache = (*cacheStore)(nil)

// Exists reports whether a marker row exists for docID.
func (c *cacheStore) Exists(ctx context.Context, docID string) (bool, error) {
	var one int
	err := c.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM cache_markers WHERE doc_id = ?", docID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying cache marker: %w", err)
	}
	return true, nil
}

// Record inserts or replaces the marker for docID.
func (c *cacheStore) Record(ctx context.Context, docID string, chunkCount int) error {
	if docID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache_markers (doc_id, chunk_count, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			chunk_count = excluded.chunk_count,
			created_at = excluded.created_at
	`, docID, chunkCount, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving cache marker: %w", err)
	}
	return nil
}

// Get returns the marker for docID, or domain.ErrNotFound.
func (c *cacheStore) Get(ctx context.Context, docID string) (*domain.CacheMarker, error) {
	var (
		marker    domain.CacheMarker
		createdAt string
	)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT doc_id, chunk_count, created_at FROM cache_markers WHERE doc_id = ?", docID,
	).Scan(&marker.DocID, &marker.ChunkCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache marker: %w", err)
	}
	marker.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing cache marker time: %w", err)
	}
	return &marker, nil
}

// Forget deletes the marker for docID if present.
func (c *cacheStore) Forget(ctx context.Context, docID string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM cache_markers WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting cache marker: %w", err)
	}
	return nil
}

// Close closes the underlying store.
func (c *cacheStore) Close() error {
	return c.store.Close()
}
