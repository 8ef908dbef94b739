package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWatcher struct {
	watched bool
}

func (w *recordingWatcher) Watch(context.Context) error {
	w.watched = true
	return nil
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	watcher := &recordingWatcher{}
	promptStore = watcher

	out, err := executeContext(cancelledContext(), "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "listening on 127.0.0.1:0")
	assert.True(t, watcher.watched)
}

func TestServeCmd_DefaultsToSettingsAddr(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeContext(cancelledContext(), "serve")

	require.NoError(t, err)
	assert.Contains(t, out, "listening on 127.0.0.1:0")
}

func TestServeCmd_NoServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	queryService = nil

	err := runServe(serveCmd, nil)

	assert.EqualError(t, err, "document and query services not configured")
}

func TestMCPCmd_HasHTTPFlag(t *testing.T) {
	flag := mcpCmd.Flags().Lookup("http")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestMCPCmd_HTTPStopsOnCancel(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeContext(cancelledContext(), "mcp", "--http", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "MCP server listening on http://127.0.0.1:0")
}

func TestMCPCmd_NoRetrievalService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	retrievalService = nil

	err := runMCP(mcpCmd, nil)

	assert.EqualError(t, err, "retrieval service not configured")
}

func TestChatCmd_RequiresDocID(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestChatCmd_NoServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	err := runChat(chatCmd, []string{"a1b2c3d4e5f6"})

	assert.EqualError(t, err, "query and document services not configured")
}
