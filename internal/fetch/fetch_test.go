// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/npmscout/pkg/types"
)

// testClient returns a Client with tiny backoffs that records every
// backoff wait instead of sleeping.
func testClient(cfg types.FetchConfig) (*Client, *[]time.Duration) {
	c := NewClient(cfg)
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestFetch_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("hello"))
	}))
	defer ts.Close()

	c, waits := testClient(types.FetchConfig{})
	body, err := c.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *waits)
}

func TestFetch_RateLimitedThenSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c, waits := testClient(types.FetchConfig{MaxAttempts: 3, RateLimitBackoff: 10 * time.Millisecond})
	body, err := c.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// Linear escalation: base*1, then base*2.
	require.Len(t, *waits, 2)
	assert.Less(t, (*waits)[0], (*waits)[1])
	assert.Equal(t, 10*time.Millisecond, (*waits)[0])
	assert.Equal(t, 20*time.Millisecond, (*waits)[1])
}

func TestFetch_TerminalStatusNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c, waits := testClient(types.FetchConfig{MaxAttempts: 5})
	_, err := c.Fetch(context.Background(), ts.URL)
	require.Error(t, err)

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrorClassTerminal, fe.Class)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, *waits)
}

func TestFetch_RateLimitExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c, waits := testClient(types.FetchConfig{MaxAttempts: 3, RateLimitBackoff: time.Millisecond})
	_, err := c.Fetch(context.Background(), ts.URL)

	require.ErrorIs(t, err, ErrAttemptsExhausted)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrorClassRateLimit, fe.Class)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, *waits, 2)
}

func TestFetch_TransportErrorRetried(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // every connection now fails

	c, waits := testClient(types.FetchConfig{MaxAttempts: 3, TransportBackoff: time.Millisecond})
	_, err := c.Fetch(context.Background(), url)

	require.ErrorIs(t, err, ErrAttemptsExhausted)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrorClassNetwork, fe.Class)
	assert.Len(t, *waits, 2)
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewClient(types.FetchConfig{MaxAttempts: 5, RateLimitBackoff: 500 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, ts.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, ErrAttemptsExhausted))
}
