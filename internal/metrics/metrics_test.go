package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamCall("continental", 200, 120*time.Millisecond)
	c.RecordUpstreamCall("continental", 200, 80*time.Millisecond)
	c.RecordUpstreamCall("platform", 429, 10*time.Millisecond)
	c.RecordAuthEvent("login", "success")
	c.RecordAuthEvent("login", "invalid_credentials")
	c.RecordRateLimited("/api/auth/login")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("continental", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("platform", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited.WithLabelValues("/api/auth/login")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.upstreamLatency))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthEvent("register", "success")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `splinter_auth_events_total{event="register",outcome="success"} 1`)
}
