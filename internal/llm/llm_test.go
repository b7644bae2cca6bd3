// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func init() {
	// Use a tiny sleep so retry tests finish quickly.
	retrySleep = 1 * time.Millisecond
}

func testDecoding() types.DecodingConfig {
	return types.DecodingConfig{MaxTokens: 1000, Temperature: 0.4, TopP: 1.0, N: 1}
}

// newVendorClient points the vendor backend at a test server.
func newVendorClient(t *testing.T, ts *httptest.Server, model string, maxRetries int) *Client {
	t.Helper()
	old := openaiAPIBase
	openaiAPIBase = ts.URL
	t.Cleanup(func() { openaiAPIBase = old })

	c, err := NewClient(types.ScoringConfig{APIKey: "test-key", Model: model, MaxRetries: maxRetries}, io.Discard)
	require.NoError(t, err)
	return c
}

func TestCompleteChatShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "the prompt", req.Messages[1].Content)

		io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}],"usage":{"total_tokens":42}}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-3.5-turbo-16k", 3)
	comp, err := c.Complete(context.Background(), "the prompt", testDecoding())
	require.NoError(t, err)
	require.Len(t, comp.Choices, 1)
	assert.Equal(t, "hello", comp.Choices[0].Text)
	assert.Equal(t, 42, comp.Choices[0].TotalTokens)
}

func TestCompleteLegacyShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		io.WriteString(w, `{"choices":[{"text":"plain"}],"usage":{"total_tokens":7}}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "text-davinci-003", 3)
	comp, err := c.Complete(context.Background(), "p", testDecoding())
	require.NoError(t, err)
	assert.Equal(t, "plain", comp.Text())
	assert.Equal(t, 7, comp.Choices[0].TotalTokens)
}

func TestCompleteMissingUsageDefaultsToZero(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":"x"}}]}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-4", 3)
	comp, err := c.Complete(context.Background(), "p", testDecoding())
	require.NoError(t, err)
	assert.Equal(t, 0, comp.Choices[0].TotalTokens)
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}],"usage":{"total_tokens":1}}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-4", 3)
	comp, err := c.Complete(context.Background(), "p", testDecoding())
	require.NoError(t, err)
	assert.Equal(t, "ok", comp.Text())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCompleteExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-4", 2)
	_, err := c.Complete(context.Background(), "p", testDecoding())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	// 1 initial + 2 retries = 3 total calls.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCompletePromptTooLongShrinksWithoutConsumingBudget(t *testing.T) {
	var calls int32
	var secondMaxTokens int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"Please reduce your prompt length","code":"context_length_exceeded"}}`)
			return
		}
		atomic.StoreInt64(&secondMaxTokens, int64(req.MaxTokens))
		io.WriteString(w, `{"choices":[{"message":{"content":"fits"}}],"usage":{"total_tokens":5}}`)
	}))
	defer ts.Close()

	// Zero retries left for real failures; the too-long path must not use them.
	c := newVendorClient(t, ts, "gpt-4", 1)
	c.maxRetries = 0

	comp, err := c.Complete(context.Background(), "p", testDecoding())
	require.NoError(t, err)
	assert.Equal(t, "fits", comp.Text())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	// 1000 * 0.8 = 800 on the second attempt.
	assert.Equal(t, int64(800), atomic.LoadInt64(&secondMaxTokens))
}

func TestCompletePromptTooLongDoesNotLeakAcrossRequests(t *testing.T) {
	var calls int32
	var maxTokensSeen [3]int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		atomic.StoreInt64(&maxTokensSeen[n-1], int64(req.MaxTokens))
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"Please reduce your prompt length"}}`)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-4", 3)
	dec := testDecoding()

	_, err := c.Complete(context.Background(), "first", dec)
	require.NoError(t, err)
	// The caller's config is untouched and the next request starts fresh.
	assert.Equal(t, 1000, dec.MaxTokens)

	_, err = c.Complete(context.Background(), "second", dec)
	require.NoError(t, err)
	assert.Equal(t, int64(800), maxTokensSeen[1])
	assert.Equal(t, int64(1000), maxTokensSeen[2])
}

func TestCompleteProtocolError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"unexpected":"shape"}`)
	}))
	defer ts.Close()

	c := newVendorClient(t, ts, "gpt-4", 0)
	_, err := c.Complete(context.Background(), "p", testDecoding())
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Body, "unexpected")
}

func TestNewClientCustomMissingConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.CustomBackendConfig
	}{
		{"missing url", types.CustomBackendConfig{Enabled: true, APIKey: "k", Model: "m"}},
		{"missing key", types.CustomBackendConfig{Enabled: true, URL: "https://x", Model: "m"}},
		{"missing model", types.CustomBackendConfig{Enabled: true, URL: "https://x", APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(types.ScoringConfig{Custom: tt.cfg}, io.Discard)
			assert.ErrorIs(t, err, ErrMissingConfig)
		})
	}
}

func TestCustomBackendMessageAndTextShapes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ck", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "my/model", req.Model)

		io.WriteString(w, `{"choices":[{"message":{"content":"a"}},{"text":"b"}]}`)
	}))
	defer ts.Close()

	c, err := NewClient(types.ScoringConfig{Custom: types.CustomBackendConfig{
		Enabled: true, URL: ts.URL, APIKey: "ck", Model: "my/model",
	}}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "custom", c.BackendName())

	comp, err := c.Complete(context.Background(), "p", testDecoding())
	require.NoError(t, err)
	require.Len(t, comp.Choices, 2)
	assert.Equal(t, "a", comp.Choices[0].Text)
	assert.Equal(t, "b", comp.Choices[1].Text)
	assert.Equal(t, 0, comp.Choices[0].TotalTokens)
}

func TestCompleteContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := retrySleep
	retrySleep = 500 * time.Millisecond
	defer func() { retrySleep = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newVendorClient(t, ts, "gpt-4", 5)
	_, err := c.Complete(ctx, "p", testDecoding())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
