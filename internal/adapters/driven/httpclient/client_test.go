package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ping", body["msg"])

		w.Write([]byte(`{"reply":"pong"}`))
	}))
	defer server.Close()

	var out struct {
		Reply string `json:"reply"`
	}
	err := DoJSON(context.Background(), New(0), Request{
		Method:   http.MethodPost,
		URL:      server.URL,
		Headers:  map[string]string{"Authorization": "Bearer k"},
		Body:     map[string]string{"msg": "ping"},
		Provider: "test",
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "pong", out.Reply)
}

func TestDoJSON_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	err := DoJSON(context.Background(), New(0), Request{Method: http.MethodGet, URL: server.URL, Provider: "test"}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.HTTPStatus())
	assert.Contains(t, err.Error(), "slow down")
	assert.True(t, IsTemporary(err))
}

func TestDoJSON_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := DoJSON(context.Background(), New(0), Request{Method: http.MethodGet, URL: url, Provider: "test"}, nil)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.True(t, IsTemporary(err))
}

func TestDoJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := DoJSON(context.Background(), New(0), Request{Method: http.MethodGet, URL: server.URL, Provider: "test"}, &out)
	assert.ErrorContains(t, err, "decode response")
}

func TestAPIError_Temporary(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 503}).Temporary())
	assert.False(t, (&APIError{StatusCode: 401}).Temporary())
	assert.False(t, IsTemporary(&APIError{StatusCode: 400}))
	assert.True(t, IsTemporary(errors.New("unknown")))
}
