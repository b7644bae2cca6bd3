// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBody = "<dl><dt>arXiv:2305.00001</dt><dd>Learning to Size Analog Circuits</dd></dl>"

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

// newListingServer serves a minimal arXiv-style listing, answering 429 to the
// first rateLimited requests. calls counts every request received.
func newListingServer(rateLimited int32, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		if n <= rateLimited {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, "Too Many Requests")
			return
		}
		io.WriteString(w, listingBody)
	}))
}

func listingRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url+"/cs/new", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "paper-digest/0.1")
	return req
}

func TestDoWithRetryImmediateSuccess(t *testing.T) {
	var calls int32
	ts := newListingServer(0, &calls)
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), listingRequest(t, ts.URL), 5)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetryRateLimitedThenServed(t *testing.T) {
	var calls int32
	ts := newListingServer(2, &calls)
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), listingRequest(t, ts.URL), 5)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// The retried request still delivers a readable listing body.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "arXiv:2305.00001"))
}

func TestDoWithRetryExhaustsRetries(t *testing.T) {
	var calls int32
	ts := newListingServer(100, &calls)
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), listingRequest(t, ts.URL), 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The last 429 comes back for the caller to inspect.
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	// 1 initial + 3 retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDoWithRetryDefaultMaxRetries(t *testing.T) {
	var calls int32
	ts := newListingServer(100, &calls)
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), listingRequest(t, ts.URL), 0)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	// 1 initial + 5 default retries.
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestDoWithRetryContextCancelledDuringBackoff(t *testing.T) {
	var calls int32
	ts := newListingServer(100, &calls)
	defer ts.Close()

	// Stretch the base delay so the context expires during the wait.
	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := DoWithRetry(ctx, ts.Client(), listingRequest(t, ts.URL), 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoWithRetryOtherStatusesPassThrough(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), listingRequest(t, ts.URL), 5)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Only 429 is retried; other failures go straight back to the caller.
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
