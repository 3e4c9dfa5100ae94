package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-meals-api/internal/dto"
)

const sweepLockKey = "campus-meals:donation-sweep"

type donationSweeper interface {
	SweepExpiredToDonations(ctx context.Context) (dto.SweepResult, error)
}

type staleClaimExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type distributedLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

type sweepMetrics interface {
	RecordSweepRun(result string)
}

// SweepScheduler periodically expires stale reservations and sweeps expired
// items into donations. Only the replica holding the lock runs a tick.
type SweepScheduler struct {
	sweeper  donationSweeper
	claims   staleClaimExpirer
	locks    distributedLocker
	metrics  sweepMetrics
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweepScheduler constructs the scheduler.
func NewSweepScheduler(sweeper donationSweeper, claims staleClaimExpirer, locks distributedLocker, metrics sweepMetrics, interval, lockTTL time.Duration, logger *zap.Logger) *SweepScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &SweepScheduler{
		sweeper:  sweeper,
		claims:   claims,
		locks:    locks,
		metrics:  metrics,
		interval: interval,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// Start runs ticks until ctx ends or Stop is called.
func (s *SweepScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
	s.logger.Info("donation sweep scheduled", zap.Duration("interval", s.interval))
}

// Stop halts the ticker and waits for an in-flight tick.
func (s *SweepScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce performs a single tick and reports whether it ran.
func (s *SweepScheduler) RunOnce(ctx context.Context) bool {
	release, ok, err := s.locks.Acquire(ctx, sweepLockKey, s.lockTTL)
	if err != nil {
		s.logger.Warn("sweep lock unavailable", zap.Error(err))
		s.record("lock_error")
		return false
	}
	if !ok {
		s.record("skipped")
		return false
	}
	defer release()

	if n, err := s.claims.ExpireStale(ctx); err != nil {
		s.logger.Warn("expire stale claims failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("stale claims expired", zap.Int64("count", n))
	}

	if _, err := s.sweeper.SweepExpiredToDonations(ctx); err != nil {
		s.logger.Warn("donation sweep failed", zap.Error(err))
		s.record("error")
		return true
	}
	s.record("ok")
	return true
}

func (s *SweepScheduler) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordSweepRun(result)
	}
}
