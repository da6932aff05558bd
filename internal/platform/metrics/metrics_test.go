package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/complaints/{id}", http.StatusForbidden, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/complaints/{id}", http.StatusForbidden, 7*time.Millisecond)
	m.AuthFailure("expired_token")
	m.ComplaintEvent("created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/complaints/{id}", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("expired_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.complaintEvents.WithLabelValues("created")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AuthFailure("forbidden")
	m.ObserveRequest(http.MethodPost, "/api/auth/login", http.StatusTooManyRequests, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `complaints_auth_failures_total{reason="forbidden"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/auth/login",status="429"`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.AuthFailure("x")
	m.ComplaintEvent("y")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
