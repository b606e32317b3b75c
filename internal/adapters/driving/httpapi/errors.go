package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Iteration *int   `json:"iteration,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(r *http.Request, w http.ResponseWriter, status int, message string, err error) {
	log := ctxzap.Extract(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(message, zap.Error(err))
	} else {
		log.Debug(message, zap.Error(err))
	}

	body := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		body.Kind = domain.ErrorKind(err)
	}

	var askErr *domain.AskError
	if errors.As(err, &askErr) {
		body.Stage = string(askErr.Stage)
		iteration := askErr.Iteration
		body.Iteration = &iteration
	}

	respondJSON(w, status, body)
}

// handleServiceError maps a service failure to an HTTP status.
func handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	respondError(r, w, statusFor(err), err.Error(), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrIndexEmpty):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGeneration),
		errors.Is(err, domain.ErrEmbedding),
		errors.Is(err, domain.ErrVerification),
		errors.Is(err, domain.ErrRetrievalBackend):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; the status is for the access log only.
		return 499
	default:
		return http.StatusInternalServerError
	}
}
