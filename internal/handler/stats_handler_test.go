package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/service"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

type statsServiceMock struct {
	err error
}

func (m statsServiceMock) Snapshot(context.Context) (*dto.CampusStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CampusStats{MealsSaved: 4, CO2SavedKg: 6}, nil
}

func TestStatsHandler(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/stats", nil, nil)
	NewStatsHandler(statsServiceMock{}).Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"co2Saved":6`)

	c, w = newTestContext(http.MethodGet, "/stats", nil, nil)
	NewStatsHandler(statsServiceMock{err: appErrors.ErrStorageUnavailable}).Get(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type pingerStub struct{ err error }

func (p pingerStub) PingContext(context.Context) error { return p.err }

func TestMetricsHandlerReadyAndPrometheus(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/ready", nil, nil)
	NewMetricsHandler(nil, pingerStub{}).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/ready", nil, nil)
	NewMetricsHandler(nil, pingerStub{err: errors.New("dial tcp: refused")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	metrics := service.NewMetricsService()
	metrics.RecordClaimOutcome("reserved")
	c, w = newTestContext(http.MethodGet, "/metrics", nil, nil)
	NewMetricsHandler(metrics, nil).Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "food_claim_outcomes_total")
}
