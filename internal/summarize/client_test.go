package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens/internal/domain"
	"github.com/pagelens/pagelens/internal/observability"
)

func newTestClient(url string, maxRetries int) *Client {
	c := NewClient(Options{
		Endpoint:   url,
		Model:      "gpt-3.5-turbo",
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		MaxRetries: maxRetries,
	}, observability.Nop())
	c.retry.InitialBackoff = time.Millisecond
	return c
}

func completionResponse(content string) Response {
	var resp Response
	resp.ID = "cmpl-test"
	resp.Choices = make([]struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}, 1)
	resp.Choices[0].Message.Content = content
	return resp
}

func TestSummarizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "some extracted text", req.Messages[1].Content)

		json.NewEncoder(w).Encode(completionResponse("  a short summary  "))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	summary, err := client.Summarize(context.Background(), "some extracted text")
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary)
}

func TestSummarizeEmptyInputSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	summary, err := client.Summarize(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.Zero(t, calls.Load())
}

func TestSummarizeRetriesOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("recovered"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	summary, err := client.Summarize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "recovered", summary)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSummarizeDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeSummarization))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSummarizeExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSummarizeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{ID: "cmpl-empty"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestPingReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingUpstreamDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	assert.Error(t, client.Ping(context.Background()))
}
