package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func newStore(t *testing.T) (*UploadStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewUploadStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestNewUploadStore(t *testing.T) {
	_, err := NewUploadStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	s, dir := newStore(t)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.Dir())
}

func TestSave(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	path, size, err := s.Save(ctx, "abc123", "PDF", strings.NewReader("%PDF-1.4 body"), 1024)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc123.pdf"), path)
	assert.Equal(t, int64(13), size)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	found, err := s.Find(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestSave_ExactlyAtLimit(t *testing.T) {
	s, _ := newStore(t)
	_, size, err := s.Save(context.Background(), "d1", ".png", strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}

func TestSave_TooLarge(t *testing.T) {
	s, dir := newStore(t)
	_, _, err := s.Save(context.Background(), "d1", ".png", strings.NewReader("123456"), 5)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestSave_ReadError(t *testing.T) {
	s, dir := newStore(t)
	_, _, err := s.Save(context.Background(), "d1", ".pdf", failingReader{}, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_Validation(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, _, err := s.Save(ctx, "../x", ".pdf", strings.NewReader("x"), 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = s.Save(ctx, "d1", ".pdf", strings.NewReader("x"), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = s.Save(cancelled, "d1", ".pdf", strings.NewReader("x"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSave_UnsafeExtensionDropped(t *testing.T) {
	s, dir := newStore(t)
	path, _, err := s.Save(context.Background(), "d1", "../../etc", strings.NewReader("x"), 10)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "d1"), path)
}

func TestRemove(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	path, _, err := s.Save(ctx, "d1", ".jpg", strings.NewReader("img"), 10)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, path))
	assert.NoFileExists(t, path)
	assert.NoError(t, s.Remove(ctx, path))
	assert.NoError(t, s.Remove(ctx, ""))

	_, err = s.Find(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFind_InvalidID(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Find(context.Background(), "*")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
