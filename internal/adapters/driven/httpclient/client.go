// Package httpclient provides the JSON-over-HTTP plumbing shared by the
// model provider adapters: a logging transport, typed errors, and a
// request helper.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// New returns an HTTP client with request logging.
// A zero timeout leaves the deadline to the request context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &logTransport{transport: http.DefaultTransport},
	}
}

type logTransport struct {
	transport http.RoundTripper
}

// RoundTrip logs method, URL, status and latency. Headers are omitted
// since they carry API keys.
func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.transport.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	} else {
		fields = append(fields, zap.Int("status", resp.StatusCode))
	}
	ctxzap.Debug(req.Context(), "HTTP outbound request", fields...)

	return resp, err
}

// Request describes a JSON call.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Body     any
	Provider string
}

// DoJSON sends req and decodes a 2xx JSON response into out.
// Non-2xx responses return *APIError; transport failures return *NetworkError.
func DoJSON(ctx context.Context, client *http.Client, req Request, out any) error {
	var body io.Reader = http.NoBody
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return &NetworkError{Provider: req.Provider, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Provider: req.Provider, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Provider: req.Provider, StatusCode: resp.StatusCode, Message: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.Provider, err)
	}
	return nil
}
