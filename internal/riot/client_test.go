package riot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/splinter-be/internal/riot"
)

type recordedCall struct {
	routing string
	status  int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) RecordUpstreamCall(routing string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{routing, status})
}

func TestClient_Get(t *testing.T) {
	var (
		mu                        sync.Mutex
		gotKey, gotPath, gotQuery string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotKey = r.Header.Get("X-Riot-Token")
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := riot.NewClient(srv.URL+"/", "RGAPI-test", "continental", time.Second, riot.WithRecorder(rec))

	body, err := c.Get(context.Background(), "/a/"+url.PathEscape("b c#1"), url.Values{"count": {"3"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "RGAPI-test", gotKey)
	assert.Equal(t, "/a/b%20c%231", gotPath)
	assert.Equal(t, "count=3", gotQuery)
	assert.Equal(t, []recordedCall{{"continental", 200}}, rec.calls)
}

func TestClient_Failures(t *testing.T) {
	t.Run("non-2xx keeps status, header and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":{"message":"Rate limit exceeded","status_code":429}}`))
		}))
		defer srv.Close()

		_, err := riot.NewClient(srv.URL, "k", "platform", time.Second).Get(context.Background(), "/x", nil)
		var httpErr *riot.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
		assert.Equal(t, "7", httpErr.Header.Get("Retry-After"))
		assert.Contains(t, string(httpErr.Body), "Rate limit exceeded")
	})

	t.Run("2xx with invalid JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := riot.NewClient(srv.URL, "k", "platform", time.Second).Get(context.Background(), "/x", nil)
		var httpErr *riot.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusOK, httpErr.StatusCode)
		assert.Error(t, httpErr.Err)
	})

	t.Run("timeout is a transport failure", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		rec := &fakeRecorder{}
		c := riot.NewClient(srv.URL, "k", "platform", 50*time.Millisecond, riot.WithRecorder(rec))
		_, err := c.Get(context.Background(), "/slow", nil)

		var httpErr *riot.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Zero(t, httpErr.StatusCode)
		assert.Error(t, httpErr.Err)
		assert.Equal(t, []recordedCall{{"platform", 0}}, rec.calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := riot.NewClient("http://127.0.0.1:1", "k", "platform", time.Second).Get(ctx, "/x", nil)
		var httpErr *riot.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
