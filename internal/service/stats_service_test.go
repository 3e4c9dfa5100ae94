package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

type stubStatsStore struct {
	mu sync.Mutex

	completed, claimants, canteens, posted, expiredClaims, expiredUnits int64

	since  time.Time
	failOn string
}

func (s *stubStatsStore) value(name string, v int64) (int64, error) {
	if s.failOn == name {
		return 0, errors.New("relation does not exist")
	}
	return v, nil
}

func (s *stubStatsStore) CountCompletedClaims(context.Context) (int64, error) {
	return s.value("completed", s.completed)
}

func (s *stubStatsStore) CountActiveClaimants(_ context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	s.since = since
	s.mu.Unlock()
	return s.value("claimants", s.claimants)
}

func (s *stubStatsStore) CountPartnerCanteens(context.Context) (int64, error) {
	return s.value("canteens", s.canteens)
}

func (s *stubStatsStore) SumPostedQuantity(context.Context) (int64, error) {
	return s.value("posted", s.posted)
}

func (s *stubStatsStore) CountExpiredReservations(context.Context, time.Time) (int64, error) {
	return s.value("expiredClaims", s.expiredClaims)
}

func (s *stubStatsStore) SumExpiredItemQuantity(context.Context, time.Time) (int64, error) {
	return s.value("expiredUnits", s.expiredUnits)
}

type recordingQueryObserver struct {
	mu     sync.Mutex
	labels map[string]int
}

func (o *recordingQueryObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.labels == nil {
		o.labels = map[string]int{}
	}
	o.labels[label]++
}

func TestStatsSnapshot(t *testing.T) {
	store := &stubStatsStore{completed: 12, claimants: 7, canteens: 3, posted: 40, expiredClaims: 2, expiredUnits: 5}
	observer := &recordingQueryObserver{}
	svc := NewStatsService(store, observer, nil, time.Second)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.MealsSaved)
	assert.Equal(t, int64(12), stats.CompletedClaims)
	assert.Equal(t, int64(7), stats.ActiveStudents)
	assert.Equal(t, int64(3), stats.PartnerCanteens)
	assert.Equal(t, int64(40), stats.TotalFoodItems)
	assert.Equal(t, int64(7), stats.FoodWasted)
	assert.InDelta(t, 18.0, stats.CO2SavedKg, 1e-9)
	assert.InDelta(t, 6000.0, stats.WaterSavedL, 1e-9)
	assert.Equal(t, now, stats.GeneratedAt)
	assert.Equal(t, now.Add(-30*24*time.Hour), store.since)
	assert.Len(t, observer.labels, 6)
}

func TestStatsSnapshotEmptyPlatform(t *testing.T) {
	svc := NewStatsService(&stubStatsStore{}, nil, nil, 0)

	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.MealsSaved)
	assert.Zero(t, stats.CO2SavedKg)
}

func TestStatsSnapshotStorageFailure(t *testing.T) {
	svc := NewStatsService(&stubStatsStore{failOn: "canteens"}, nil, nil, time.Second)

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrStorageUnavailable)
	assert.Equal(t, 503, appErrors.FromError(err).Status)
}
