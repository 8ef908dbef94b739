package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseName)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	err := store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var tableExists int
	err = store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		"cache_markers",
	).Scan(&tableExists)
	require.NoError(t, err)
	assert.Equal(t, 1, tableExists)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.EmbeddingCache().Record(context.Background(), "doc1", 3))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var applied int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	exists, err := second.EmbeddingCache().Exists(context.Background(), "doc1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMigrationsEmbedded(t *testing.T) {
	_, err := migrations.FS.ReadFile("001_cache_markers.up.sql")
	assert.NoError(t, err)
	_, err = migrations.FS.ReadFile("001_cache_markers.down.sql")
	assert.NoError(t, err)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

// ==================== Cache Marker Tests ====================

func TestCacheStore_RecordAndGet(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, cache.Record(ctx, "doc1", 12))

	exists, err := cache.Exists(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, exists)

	marker, err := cache.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", marker.DocID)
	assert.Equal(t, 12, marker.ChunkCount)
	assert.True(t, marker.Timestamp.After(before))
}

func TestCacheStore_RecordIsIdempotent(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, "doc1", 1))
	require.NoError(t, cache.Record(ctx, "doc1", 1))
	require.NoError(t, cache.Record(ctx, "doc1", 7))

	marker, err := cache.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 7, marker.ChunkCount)
}

func TestCacheStore_RecordRequiresID(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	err := cache.Record(context.Background(), "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCacheStore_Missing(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, cache.Forget(ctx, "missing"))
}

func TestCacheStore_Forget(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, "doc1", 2))
	require.NoError(t, cache.Record(ctx, "doc2", 2))
	require.NoError(t, cache.Forget(ctx, "doc1"))
	require.NoError(t, cache.Forget(ctx, "doc1"))

	exists, err := cache.Exists(ctx, "doc1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "doc2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheStore_Concurrent(t *testing.T) {
	cache := setupTestStore(t).EmbeddingCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, cache.Record(ctx, "doc1", i))
		}(i)
	}
	wg.Wait()

	exists, err := cache.Exists(ctx, "doc1")
	require.NoError(t, err)
	assert.True(t, exists)
}
