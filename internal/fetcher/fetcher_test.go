package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFetcher(retries uint) *Fetcher {
	return New(Config{
		MaxRetries:  retries,
		BackoffBase: time.Millisecond,
		Timeout:     2 * time.Second,
		Referer:     "https://example.com/",
	}, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()
	var gotReferer atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer.Store(r.Header.Get("Referer"))
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	resp, err := testFetcher(2).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "hello")
	require.Equal(t, "https://example.com/", gotReferer.Load())
}

func TestFetchReturnsNonOKResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))
	defer srv.Close()

	resp, err := testFetcher(2).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	resp, err := testFetcher(5).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(3), attempts.Load())
}

func TestFetchExhaustionIsUnreachable(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("server does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	const backoffBase = 10 * time.Millisecond
	f := New(Config{
		MaxRetries:  5,
		BackoffBase: backoffBase,
		Timeout:     2 * time.Second,
	}, zap.NewNop())

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrUnreachable)

	// Initial attempt plus the full retry budget.
	require.Equal(t, int32(6), attempts.Load())

	// Backoff doubles per retry: 10+20+40+80+160ms before giving up.
	require.GreaterOrEqual(t, elapsed, 310*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
}

func TestFetchContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(5).Fetch(ctx, "http://127.0.0.1:1/viewer")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnreachable)
}
