package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-meals-api/internal/dto"
	"github.com/noah-isme/campus-meals-api/internal/repository"
)

type stubSweeper struct {
	runs int
	err  error
}

func (s *stubSweeper) SweepExpiredToDonations(context.Context) (dto.SweepResult, error) {
	s.runs++
	return dto.SweepResult{TransferredCount: 1}, s.err
}

type stubExpirer struct{ runs int }

func (s *stubExpirer) ExpireStale(context.Context) (int64, error) {
	s.runs++
	return 0, nil
}

type stubLocker struct {
	held     bool
	err      error
	released int
}

func (l *stubLocker) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	return func() { l.released++ }, true, nil
}

type sweepRunRecorder struct{ results []string }

func (r *sweepRunRecorder) RecordSweepRun(result string) { r.results = append(r.results, result) }

func TestSweepSchedulerRunOnce(t *testing.T) {
	sweeper, expirer, locker, rec := &stubSweeper{}, &stubExpirer{}, &stubLocker{}, &sweepRunRecorder{}
	s := NewSweepScheduler(sweeper, expirer, locker, rec, time.Minute, 0, nil)

	assert.True(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, sweeper.runs)
	assert.Equal(t, 1, expirer.runs)
	assert.Equal(t, 1, locker.released)

	locker.held = true
	assert.False(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, sweeper.runs)

	locker.held, locker.err = false, errors.New("redis down")
	assert.False(t, s.RunOnce(context.Background()))

	locker.err = nil
	sweeper.err = errors.New("boom")
	assert.True(t, s.RunOnce(context.Background()))

	assert.Equal(t, []string{"ok", "skipped", "lock_error", "error"}, rec.results)
}

func TestSweepSchedulerSingleReplicaWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locks := repository.NewLockRepository(client, nil)

	require.NoError(t, mr.Set(sweepLockKey, "other-replica"))
	sweeper := &stubSweeper{}
	s := NewSweepScheduler(sweeper, &stubExpirer{}, locks, nil, time.Minute, time.Minute, nil)

	assert.False(t, s.RunOnce(context.Background()))
	mr.Del(sweepLockKey)
	assert.True(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, sweeper.runs)
	assert.False(t, mr.Exists(sweepLockKey), "lock released after the tick")
}

func TestSweepSchedulerStartStop(t *testing.T) {
	sweeper := &stubSweeper{}
	s := NewSweepScheduler(sweeper, &stubExpirer{}, &stubLocker{}, nil, 0, 0, nil)
	s.Start(context.Background())
	s.Stop()
	assert.Zero(t, sweeper.runs, "a zero interval disables the ticker")
}
