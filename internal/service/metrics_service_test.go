package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsServiceCountsDomainEvents(t *testing.T) {
	m := NewMetricsService()
	m.RecordClaimOutcome("reserved")
	m.RecordClaimOutcome("reserved")
	m.RecordClaimOutcome("already_claimed")
	m.RecordDonationsTransferred(3)
	m.RecordDonationsTransferred(0)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/stats", http.StatusOK, 10*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `food_claim_outcomes_total{outcome="reserved"} 2`)
	assert.Contains(t, body, `food_claim_outcomes_total{outcome="already_claimed"} 1`)
	assert.Contains(t, body, `food_donations_transferred_total 3`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/stats",status="200"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordClaimOutcome("reserved")
	m.RecordSweepRun("ok")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
