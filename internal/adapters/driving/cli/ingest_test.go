package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestCmd_Files(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	notes := writeFile(t, dir, "notes.md", "# Renewal\n\nThe agreement renews yearly.")
	dup := writeFile(t, dir, "copy.txt", "Either party may terminate with 30 days written notice.")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", notes, dup})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Ingested "+notes+": 2 chunks (id doc-notes.md)")
	assert.Contains(t, out, "Already ingested "+dup+" (id doc-1)")
	assert.Len(t, ts.ingest.docs, 2)
}

func TestIngestCmd_Directory(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")
	writeFile(t, dir, "nested/b.txt", "beta")
	writeFile(t, dir, "image.png", "png")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", dir})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "a.txt")
	assert.NotContains(t, buf.String(), "b.txt")
	assert.Contains(t, ts.ingest.docs, "doc-a.txt")
	assert.NotContains(t, buf.String(), "image.png")
}

func TestIngestCmd_DirectoryRecursive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "nested/b.txt", "beta")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", "-r", dir})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestRecursive = false
	}()

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, ts.ingest.docs, "doc-b.txt")
}

func TestIngestCmd_ReportsFailures(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	sheet := writeFile(t, t.TempDir(), "sheet.xlsx", "x")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", sheet})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file(s) failed to ingest")
	assert.Contains(t, buf.String(), "Failed "+sheet)
}

func TestIngestCmd_MissingPath(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", filepath.Join(t.TempDir(), "missing.txt")})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
