package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// Handler serves the HTTP endpoints.
type Handler struct {
	ask            driving.AskService
	ingest         driving.IngestService
	reports        driven.ReportFactory
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Services, maxUploadBytes int64) *Handler {
	return &Handler{
		ask:            svc.Ask,
		ingest:         svc.Ingest,
		reports:        svc.Reports,
		maxUploadBytes: maxUploadBytes,
	}
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the answer with its band and uncertainty flag resolved.
type AskResponse struct {
	*domain.AskResult
	Band      domain.ConfidenceBand `json:"band"`
	Uncertain bool                  `json:"uncertain"`
}

// DocumentResponse describes a stored document without its content.
type DocumentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadResponse is the result of POST /v1/documents.
type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Chunks     int    `json:"chunks"`
	Duplicate  bool   `json:"duplicate"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ask handles POST /v1/ask. With ?format=md|docx|pdf the answer is
// returned as a downloadable report instead of JSON.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var formatter driven.ReportFormatter
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		if h.reports == nil {
			respondError(r, w, http.StatusNotImplemented, "reports are not enabled", nil)
			return
		}
		f, err := h.reports.Create(domain.ReportFormat(format))
		if err != nil {
			respondError(r, w, http.StatusBadRequest, err.Error(), err)
			return
		}
		formatter = f
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(r, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(r, w, http.StatusBadRequest, "question is required", domain.ErrInvalidInput)
		return
	}

	res, err := h.ask.Ask(r.Context(), req.Question)
	if err != nil {
		handleServiceError(r, w, err)
		return
	}

	if formatter != nil {
		data, err := formatter.Format(res)
		if err != nil {
			respondError(r, w, http.StatusInternalServerError, "failed to render report", err)
			return
		}
		w.Header().Set("Content-Type", formatter.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="answer-%s%s"`, res.SessionID, formatter.FileExtension()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	respondJSON(w, http.StatusOK, AskResponse{
		AskResult: res,
		Band:      res.Band(),
		Uncertain: res.Uncertain(),
	})
}

// UploadDocument handles POST /v1/documents.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		// Allow headroom for the multipart envelope.
		limit := h.maxUploadBytes + 1<<20
		if r.ContentLength > limit {
			respondError(r, w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", domain.ErrFileTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(r, w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", domain.ErrFileTooLarge)
			return
		}
		respondError(r, w, http.StatusBadRequest, fmt.Sprintf("multipart field %q is required", uploadField), err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(r, w, http.StatusRequestEntityTooLarge, "upload exceeds size limit", domain.ErrFileTooLarge)
			return
		}
		respondError(r, w, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	res, err := h.ingest.Ingest(r.Context(), domain.IngestRequest{
		Name:    header.Filename,
		Content: content,
	})
	if err != nil {
		handleServiceError(r, w, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, UploadResponse{
		DocumentID: res.DocumentID,
		Name:       header.Filename,
		Chunks:     res.Chunks,
		Duplicate:  res.Duplicate,
	})
}

// ListDocuments handles GET /v1/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingest.List(r.Context())
	if err != nil {
		handleServiceError(r, w, err)
		return
	}

	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetDocument handles GET /v1/documents/{document_id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ingest.Get(r.Context(), chi.URLParam(r, "document_id"))
	if err != nil {
		handleServiceError(r, w, err)
		return
	}
	respondJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// DeleteDocument handles DELETE /v1/documents/{document_id}.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.ingest.Delete(r.Context(), chi.URLParam(r, "document_id")); err != nil {
		handleServiceError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles DELETE /v1/documents.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.ingest.Reset(r.Context()); err != nil {
		handleServiceError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ingest.Stats(r.Context())
	if err != nil {
		handleServiceError(r, w, err)
		return
	}

	kinds := h.ingest.SupportedKinds()
	supported := make([]string, len(kinds))
	for i, k := range kinds {
		supported[i] = string(k)
	}

	respondJSON(w, http.StatusOK, struct {
		domain.IndexStats
		SupportedKinds []string `json:"supported_kinds"`
	}{stats, supported})
}

func toDocumentResponse(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		Name:        doc.Name,
		Kind:        string(doc.Kind),
		Size:        doc.Size,
		ContentHash: doc.ContentHash,
		CreatedAt:   doc.CreatedAt,
	}
}
