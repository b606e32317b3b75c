package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/verity/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/logger"
)

var (
	serveAddr    string
	serveTimeout time.Duration
	serveText    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON API:

  POST   /v1/ask                   ask a question (?format=md|docx|pdf for a report)
  POST   /v1/documents             upload a file (multipart field "file")
  GET    /v1/documents             list documents
  GET    /v1/documents/{id}        get a document
  DELETE /v1/documents/{id}        delete a document
  DELETE /v1/documents             remove every document
  GET    /v1/stats                 index statistics
  GET    /health                   liveness

Logs are written as JSON unless --text-logs is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 2*time.Minute, "per-request timeout (0 disables)")
	serveCmd.Flags().BoolVar(&serveText, "text-logs", false, "write console logs instead of JSON")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if askService == nil {
		return errNotConfigured("ask")
	}
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	if !serveText {
		logger.SetFormat(logger.FormatJSON)
	}

	var maxUpload int64 = domain.DefaultMaxFileBytes
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			maxUpload = s.Engine.MaxFileBytes
		}
	}

	handler := httpapi.NewRouter(httpapi.Services{
		Ask:     askService,
		Ingest:  ingestService,
		Reports: reportFactory,
	}, httpapi.Config{
		Addr:           serveAddr,
		MaxUploadBytes: maxUpload,
		RequestTimeout: serveTimeout,
	}, logger.L())

	cmd.PrintErrf("verity API listening on %s\n", serveAddr)
	if err := httpapi.Serve(cmd.Context(), handler, serveAddr); err != nil {
		return fmt.Errorf("serving HTTP: %w", err)
	}
	return nil
}
