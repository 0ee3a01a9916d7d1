package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/redis/go-redis/v9"
)

// RunLog remembers when the scheduler last refreshed each session. Replicas
// that share a RunLog share one schedule.
type RunLog interface {
	LastRun(ctx context.Context, id string) (time.Time, bool, error)
	RecordRun(ctx context.Context, id string, at time.Time) error
}

type memoryRunLog struct {
	mu   sync.Mutex
	runs map[string]time.Time
}

func newMemoryRunLog() *memoryRunLog {
	return &memoryRunLog{runs: make(map[string]time.Time)}
}

func (m *memoryRunLog) LastRun(ctx context.Context, id string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.runs[id]
	return t, ok, nil
}

func (m *memoryRunLog) RecordRun(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	m.runs[id] = at
	m.mu.Unlock()
	return nil
}

const lastRunKeyPrefix = "refresh:last:"

// redisRunLog keeps the last run as unix nanoseconds under refresh:last:<id>.
type redisRunLog struct {
	rdb *redis.Client
}

func (r redisRunLog) LastRun(ctx context.Context, id string) (time.Time, bool, error) {
	ns, err := r.rdb.Get(ctx, lastRunKeyPrefix+id).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(0, ns), true, nil
}

func (r redisRunLog) RecordRun(ctx context.Context, id string, at time.Time) error {
	return r.rdb.Set(ctx, lastRunKeyPrefix+id, at.UnixNano(), 0).Err()
}

// Scheduler refreshes every stored session whenever its cron schedule comes
// due. With Redis configured the last run of each session lives in Redis and
// a per-session lock keeps concurrent instances from refreshing the same
// session twice in one period.
type Scheduler struct {
	Lister    store.Lister
	Refresher SessionRefresher
	Rdb       *redis.Client
	Runs      RunLog
	Expr      *cronexpr.Expression
	LockTTL   time.Duration
	Interval  time.Duration
	Logger    *log.Logger

	now     func() time.Time
	started time.Time
}

func NewScheduler(l store.Lister, r SessionRefresher, rdb *redis.Client, schedule string, lockTTL time.Duration) (*Scheduler, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, err
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	var runs RunLog = newMemoryRunLog()
	if rdb != nil {
		runs = redisRunLog{rdb: rdb}
	}
	return &Scheduler{
		Lister:    l,
		Refresher: r,
		Rdb:       rdb,
		Runs:      runs,
		Expr:      expr,
		LockTTL:   lockTTL,
		Interval:  time.Minute,
		Logger:    log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		now:       time.Now,
	}, nil
}

// Start ticks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.started = s.now()
	ticker := time.NewTicker(s.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	ids, err := s.Lister.ListIDs(ctx)
	if err != nil {
		s.Logger.Printf("list sessions: %v", err)
		return
	}
	now := s.now()
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		due, err := s.due(ctx, id, now)
		if err != nil {
			s.Logger.Printf("session %s: last run: %v", id, err)
			continue
		}
		if due {
			s.runOne(ctx, id, now)
		}
	}
}

// due reports whether the schedule fired since the session's last run, or
// since this scheduler started for a session nobody has run yet.
func (s *Scheduler) due(ctx context.Context, id string, now time.Time) (bool, error) {
	last, ok, err := s.Runs.LastRun(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		last = s.started
	}
	return isDue(s.Expr, last, now), nil
}

func (s *Scheduler) runOne(ctx context.Context, id string, now time.Time) {
	if s.Rdb != nil {
		lockKey := "refresh:lock:" + id
		ok, err := s.Rdb.SetNX(ctx, lockKey, "1", s.LockTTL).Result()
		if err != nil {
			s.Logger.Printf("session %s: lock: %v", id, err)
			return
		}
		if !ok {
			return
		}
		defer s.Rdb.Del(context.Background(), lockKey)
	}
	// another instance may have finished this period between our check and
	// taking the lock
	if due, err := s.due(ctx, id, now); err != nil || !due {
		if err != nil {
			s.Logger.Printf("session %s: last run: %v", id, err)
		}
		return
	}
	// the attempt counts even when it fails, otherwise a broken session
	// would be retried on every tick
	if err := s.Runs.RecordRun(ctx, id, now); err != nil {
		s.Logger.Printf("session %s: record run: %v", id, err)
		return
	}
	if _, err := s.Refresher.Refresh(ctx, id); err != nil {
		s.Logger.Printf("session %s: %v", id, err)
	}
}

// isDue reports whether the schedule fired between last and now.
func isDue(expr *cronexpr.Expression, last, now time.Time) bool {
	next := expr.Next(last)
	return !next.IsZero() && !next.After(now)
}
