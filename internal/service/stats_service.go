package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	appErrors "github.com/noah-isme/campus-meals-api/pkg/errors"
)

// Per-meal impact estimates.
const (
	co2KgPerMeal       = 1.5
	waterLitersPerMeal = 500.0
	activeWindow       = 30 * 24 * time.Hour
)

type statsStore interface {
	CountCompletedClaims(ctx context.Context) (int64, error)
	CountActiveClaimants(ctx context.Context, since time.Time) (int64, error)
	CountPartnerCanteens(ctx context.Context) (int64, error)
	SumPostedQuantity(ctx context.Context) (int64, error)
	CountExpiredReservations(ctx context.Context, now time.Time) (int64, error)
	SumExpiredItemQuantity(ctx context.Context, now time.Time) (int64, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// StatsService computes point-in-time platform impact figures.
type StatsService struct {
	repo    statsStore
	metrics queryObserver
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewStatsService constructs the stats aggregator.
func NewStatsService(repo statsStore, metrics queryObserver, logger *zap.Logger, timeout time.Duration) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, metrics: metrics, logger: logger, timeout: timeout, now: time.Now}
}

// Snapshot recomputes every figure on each call.
func (s *StatsService) Snapshot(ctx context.Context) (*dto.CampusStats, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC()
	var (
		completed, claimants, canteens, posted, expiredClaims, expiredUnits int64
	)
	g, gctx := errgroup.WithContext(ctx)
	s.run(g, "stats_completed_claims", &completed, func() (int64, error) { return s.repo.CountCompletedClaims(gctx) })
	s.run(g, "stats_active_claimants", &claimants, func() (int64, error) { return s.repo.CountActiveClaimants(gctx, now.Add(-activeWindow)) })
	s.run(g, "stats_partner_canteens", &canteens, func() (int64, error) { return s.repo.CountPartnerCanteens(gctx) })
	s.run(g, "stats_posted_quantity", &posted, func() (int64, error) { return s.repo.SumPostedQuantity(gctx) })
	s.run(g, "stats_expired_reservations", &expiredClaims, func() (int64, error) { return s.repo.CountExpiredReservations(gctx, now) })
	s.run(g, "stats_expired_units", &expiredUnits, func() (int64, error) { return s.repo.SumExpiredItemQuantity(gctx, now) })
	if err := g.Wait(); err != nil {
		return nil, appErrors.Storage(err, "failed to compute campus stats")
	}

	return &dto.CampusStats{
		MealsSaved:      completed,
		ActiveStudents:  claimants,
		PartnerCanteens: canteens,
		TotalFoodItems:  posted,
		FoodWasted:      expiredClaims + expiredUnits,
		CompletedClaims: completed,
		CO2SavedKg:      float64(completed) * co2KgPerMeal,
		WaterSavedL:     float64(completed) * waterLitersPerMeal,
		GeneratedAt:     now,
	}, nil
}

func (s *StatsService) run(g *errgroup.Group, label string, dest *int64, query func() (int64, error)) {
	g.Go(func() error {
		start := time.Now()
		v, err := query()
		if s.metrics != nil {
			s.metrics.ObserveDBQuery(label, time.Since(start))
		}
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}
