// Package builder assembles the verity services from settings.
package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/unidoc/unioffice/common/license"

	"github.com/custodia-labs/verity/internal/adapters/driven/ai"
	"github.com/custodia-labs/verity/internal/adapters/driven/config/file"
	"github.com/custodia-labs/verity/internal/adapters/driven/report"
	"github.com/custodia-labs/verity/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/verity/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/verity/internal/adapters/driving/cli"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/services"
	"github.com/custodia-labs/verity/internal/logger"
	"github.com/custodia-labs/verity/internal/normalisers"
	"github.com/custodia-labs/verity/internal/normalisers/docx"
	"github.com/custodia-labs/verity/internal/normalisers/markdown"
	"github.com/custodia-labs/verity/internal/normalisers/pdf"
	"github.com/custodia-labs/verity/internal/normalisers/plaintext"
	"github.com/custodia-labs/verity/internal/postprocessors/chunker"
)

// Builder creates services for a CLI run.
type Builder struct {
	// ConfigDir holds config.toml. Empty means ~/.verity.
	ConfigDir string

	// EnvFiles are dotenv files read before the environment.
	EnvFiles []string

	// SkipPing disables provider connectivity checks at startup.
	SkipPing bool

	// activateOffice registers the UniDoc key. Nil means license.SetMeteredKey.
	activateOffice func(key string) error
}

// New returns a builder reading ./.env and the default config directory.
func New() *Builder {
	return &Builder{EnvFiles: []string{".env"}}
}

// officeLicensed activates unioffice with the configured key. DOCX reports
// and unioffice reading stay disabled when it returns false.
func (b *Builder) officeLicensed(key string) bool {
	if key == "" {
		logger.Debug("unidoc license key not set, docx reports disabled")
		return false
	}
	activate := b.activateOffice
	if activate == nil {
		activate = license.SetMeteredKey
	}
	if err := activate(key); err != nil {
		logger.Warn("unidoc license activation failed, docx reports disabled: %v", err)
		return false
	}
	return true
}

// Build implements cli.Bootstrap.
func (b *Builder) Build(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	store, err := file.NewConfigStore(b.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	loader := file.NewLoader(store, b.EnvFiles...)
	settingsSvc := services.NewSettingsService(store, loader, ai.NewConfigValidator())

	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsSvc}, func() {}, nil
	}

	settings, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.Ephemeral {
		settings.Ephemeral = true
	}
	logger.Debug("settings loaded: embedding=%s llm=%s data_dir=%q ephemeral=%t",
		settings.Embedding.Provider, settings.LLM.Provider, settings.DataDir, settings.Ephemeral)

	models, err := ai.Initialise(ctx, settings, ai.Options{SkipPing: b.SkipPing})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range models.Warnings {
		logger.Warn("%s", w)
	}

	closers := []func(){models.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var docStore driven.DocumentStore
	if settings.Ephemeral {
		docStore = memory.NewDocumentStore()
	} else {
		db, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open document store: %w", err)
		}
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing document store: %v", err)
			}
		})
		docStore = db
	}

	if err := pdf.CheckAvailable(); err != nil {
		logger.Debug("pdf extraction unavailable: %v", err)
	}
	var (
		docxOpts   []docx.Option
		reportOpts []report.Option
	)
	if b.officeLicensed(settings.UniDoc.LicenseKey) {
		docxOpts = append(docxOpts, docx.WithUnioffice())
		reportOpts = append(reportOpts, report.WithDOCX())
	}
	registry := normalisers.NewRegistry(plaintext.New(), markdown.New(), docx.New(docxOpts...), pdf.New())
	chunks := chunker.New(
		chunker.WithChunkSize(settings.Engine.ChunkSize),
		chunker.WithOverlap(settings.Engine.ChunkOverlap),
	)

	ingest := services.NewIngestService(docStore, models.VectorIndex, models.EmbeddingService, registry, chunks, settings.Engine)
	if models.LLMService != nil {
		ingest.SetLLMModel(settings.LLM.Model)
	}
	n, err := ingest.RebuildIndex(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("rebuild index: %w", err)
	}
	logger.Debug("vector index rebuilt with %d chunks", n)

	promptDir := ""
	if settings.DataDir != "" {
		promptDir = filepath.Join(settings.DataDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open prompts: %w", err)
	}

	controller := services.NewCorrectionController(
		services.NewVectorRetriever(models.VectorIndex, models.EmbeddingService, docStore),
		services.NewAnswerGenerator(models.LLMService, prompts),
		services.NewGroundingVerifier(models.LLMService, prompts),
		docStore,
		settings.Engine,
	)

	return &cli.Services{
		Ask:      controller,
		Ingest:   ingest,
		Settings: settingsSvc,
		Reports:  report.NewFactory(reportOpts...),
	}, cleanup, nil
}
