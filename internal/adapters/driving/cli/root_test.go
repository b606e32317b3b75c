package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bootstrapRecorder struct {
	calls   []Options
	cleaned int
	err     error
}

func (b *bootstrapRecorder) bootstrap(_ context.Context, opts Options) (*Services, func(), error) {
	b.calls = append(b.calls, opts)
	if b.err != nil {
		return nil, nil, b.err
	}
	return &Services{
		Ask:      &mockAskService{},
		Ingest:   newMockIngestService(),
		Settings: newMockSettingsService(),
	}, func() { b.cleaned++ }, nil
}

func withBootstrap(t *testing.T) *bootstrapRecorder {
	t.Helper()
	rec := &bootstrapRecorder{}
	SetServices(nil)
	SetBootstrap(rec.bootstrap)
	t.Cleanup(func() {
		SetBootstrap(nil)
		SetServices(nil)
		rootCmd.SetArgs(nil)
		ephemeral = false
		verbose = false
	})
	return rec
}

func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRoot_BootstrapsServicesOnDemand(t *testing.T) {
	rec := withBootstrap(t)

	out, err := execute("stats", "--ephemeral", "-v")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents:")
	require.Len(t, rec.calls, 1)
	assert.Equal(t, Options{Verbose: true, Ephemeral: true}, rec.calls[0])
	assert.Equal(t, 1, rec.cleaned)
}

func TestRoot_SettingsOnlyForConfigCommands(t *testing.T) {
	rec := withBootstrap(t)

	_, err := execute("config", "path")

	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.True(t, rec.calls[0].SettingsOnly)
}

func TestRoot_NoBootstrapForVersion(t *testing.T) {
	rec := withBootstrap(t)

	_, err := execute("version")

	require.NoError(t, err)
	assert.Empty(t, rec.calls)
}

func TestRoot_BootstrapFailure(t *testing.T) {
	rec := withBootstrap(t)
	rec.err = errors.New("config invalid")

	_, err := execute("stats")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting verity: config invalid")
}

func TestRoot_InjectedServicesSkipBootstrap(t *testing.T) {
	rec := withBootstrap(t)
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("stats")

	require.NoError(t, err)
	assert.Empty(t, rec.calls)
}

func TestRoot_RegistersCommands(t *testing.T) {
	want := []string{"ask", "chat", "config", "documents", "examples", "ingest", "mcp", "reset", "serve", "stats", "version", "watch"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}
