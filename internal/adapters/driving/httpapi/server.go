package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxUploadBytes caps the request body of an upload.
	MaxUploadBytes int64

	// RequestTimeout bounds a single request, including the correction loop.
	RequestTimeout time.Duration
}

// Services are the application services the API exposes.
type Services struct {
	Ask    driving.AskService
	Ingest driving.IngestService

	// Reports renders answers for ?format= on /v1/ask. Optional.
	Reports driven.ReportFactory
}

// NewRouter creates and configures the HTTP router.
func NewRouter(svc Services, cfg Config, log *zap.Logger) http.Handler {
	h := NewHandler(svc, cfg.MaxUploadBytes)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(log))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", h.Ask)
		r.Get("/stats", h.Stats)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.UploadDocument)
			r.Get("/", h.ListDocuments)
			r.Delete("/", h.Reset)

			r.Route("/{document_id}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Delete("/", h.DeleteDocument)
			})
		})
	})

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
