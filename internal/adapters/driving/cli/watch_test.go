package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_ScansThenStopsOnCancel(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "terms.txt", "Invoices are due within 14 days.")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"watch", dir})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetContext(context.Background())
	}()

	require.NoError(t, rootCmd.ExecuteContext(ctx))

	out := buf.String()
	assert.Contains(t, out, "terms.txt")
	assert.Contains(t, out, "Watching "+dir)
	assert.Contains(t, ts.ingest.docs, "doc-terms.txt")
}

func TestWatchCmd_Flags(t *testing.T) {
	flag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "300ms", flag.DefValue)
	assert.NotNil(t, watchCmd.Flags().Lookup("recursive"))
}

func TestServeCmd_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, ":8080", flag.DefValue)
	assert.Contains(t, serveCmd.Long, "POST   /v1/ask")
}

func TestMCPServeCmd_RequiresServices(t *testing.T) {
	SetServices(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"mcp", "serve"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask service is required")
}

func TestChatCmd_RequiresServices(t *testing.T) {
	SetServices(nil)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create TUI")
}
