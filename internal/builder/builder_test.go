package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/adapters/driving/cli"
	"github.com/custodia-labs/verity/internal/core/domain"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	t.Setenv("VERITY_DATA_DIR", t.TempDir())
	return &Builder{ConfigDir: t.TempDir(), SkipPing: true}
}

func TestBuild_SettingsOnly(t *testing.T) {
	b := newTestBuilder(t)

	svc, cleanup, err := b.Build(context.Background(), cli.Options{SettingsOnly: true})
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Ask)
	assert.Nil(t, svc.Ingest)
	assert.Equal(t, filepath.Join(b.ConfigDir, "config.toml"), svc.Settings.Path())
}

func TestBuild_EphemeralIngest(t *testing.T) {
	b := newTestBuilder(t)
	ctx := context.Background()

	svc, cleanup, err := b.Build(ctx, cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, svc.Ask)
	require.NotNil(t, svc.Reports)

	res, err := svc.Ingest.Ingest(ctx, domain.IngestRequest{
		Name:    "contract.txt",
		Content: []byte("Either party may terminate this agreement with 30 days written notice."),
	})
	require.NoError(t, err)
	assert.Positive(t, res.Chunks)

	stats, err := svc.Ingest.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Empty(t, stats.LLMModel)
}

func TestBuild_PersistentStoreSurvivesRestart(t *testing.T) {
	b := newTestBuilder(t)
	ctx := context.Background()

	svc, cleanup, err := b.Build(ctx, cli.Options{})
	require.NoError(t, err)
	_, err = svc.Ingest.Ingest(ctx, domain.IngestRequest{
		Name:    "notes.md",
		Content: []byte("# Renewal\n\nThe agreement renews automatically each year."),
	})
	require.NoError(t, err)
	cleanup()

	_, err = os.Stat(filepath.Join(os.Getenv("VERITY_DATA_DIR"), "verity.db"))
	require.NoError(t, err)

	svc, cleanup, err = b.Build(ctx, cli.Options{})
	require.NoError(t, err)
	defer cleanup()

	docs, err := svc.Ingest.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.md", docs[0].Name)
}

func TestBuild_InvalidSettings(t *testing.T) {
	b := newTestBuilder(t)
	t.Setenv("VERITY_EMBEDDING_PROVIDER", "carrier-pigeon")

	_, _, err := b.Build(context.Background(), cli.Options{})
	require.Error(t, err)

	svc, cleanup, err := b.Build(context.Background(), cli.Options{SettingsOnly: true})
	require.NoError(t, err, "config commands must work with broken settings")
	defer cleanup()
	assert.NotNil(t, svc.Settings)
}

func TestBuild_DOCXReportsFollowLicense(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		activate  func(string) error
		wantDOCX  bool
		wantCalls int
	}{
		{name: "no key", wantDOCX: false},
		{
			name:      "activated",
			key:       "metered-key",
			activate:  func(string) error { return nil },
			wantDOCX:  true,
			wantCalls: 1,
		},
		{
			name:      "activation fails",
			key:       "revoked-key",
			activate:  func(string) error { return errors.New("key revoked") },
			wantDOCX:  false,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t)
			t.Setenv("VERITY_UNIDOC_LICENSE_KEY", tt.key)
			var calls int
			b.activateOffice = func(key string) error {
				calls++
				assert.Equal(t, tt.key, key)
				return tt.activate(key)
			}

			svc, cleanup, err := b.Build(context.Background(), cli.Options{Ephemeral: true})
			require.NoError(t, err)
			defer cleanup()

			_, err = svc.Reports.Create(domain.ReportDOCX)
			if tt.wantDOCX {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
			}
			assert.Equal(t, tt.wantCalls, calls)

			_, err = svc.Reports.Create(domain.ReportMarkdown)
			assert.NoError(t, err)
		})
	}
}
