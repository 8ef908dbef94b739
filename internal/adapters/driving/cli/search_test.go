package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [doc-id] [question]", searchCmd.Use)
}

func TestSearchCmd_RequiresTwoArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "a1b2c3d4e5f6")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestSearchCmd_HasTopKFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_PrintsPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "a1b2c3d4e5f6", "what is the total?")

	require.NoError(t, err)
	assert.Zero(t, ts.retrieval.topK)
	assert.Contains(t, out, "[1] Page 2 (0.91)")
	assert.Contains(t, out, "The total is 42.")
	assert.Contains(t, out, "[2] Page 3 (0.55)")
}

func TestSearchCmd_TopK(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "-k", "5", "a1b2c3d4e5f6", "total")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.retrieval.topK)
}

func TestSearchCmd_NegativeTopK(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search", "--top-k", "-1", "a1b2c3d4e5f6", "total")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_NoResults(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.chunks = nil

	out, err := execute("search", "unknown", "total")

	require.NoError(t, err)
	assert.Contains(t, out, "No relevant passages found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "--json", "a1b2c3d4e5f6", "total")

	require.NoError(t, err)
	var chunks []domain.RetrievedChunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, 2, chunks[0].Page)
}

func TestSearchCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.err = domain.ErrEmbeddingUnavailable

	_, err := execute("search", "a1b2c3d4e5f6", "total")

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, ExitUnavailable, ExitCode(err))
}
