package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 3
	DefaultWindow      = time.Minute
)

// Limiter answers whether identity may make one more request now. A denied
// request is not recorded.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

var ErrEmptyIdentity = errors.New("rate limit identity is empty")

// Memory is a per-process sliding-window limiter.
type Memory struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
}

func NewMemory(max int, window time.Duration) *Memory {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{hits: make(map[string][]time.Time), max: max, window: window, now: time.Now}
}

func (m *Memory) Allow(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		return false, ErrEmptyIdentity
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)
	recent := m.hits[identity][:0]
	for _, ts := range m.hits[identity] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) >= m.max {
		m.hits[identity] = recent
		return false, nil
	}
	m.hits[identity] = append(recent, now)
	return true, nil
}

// Prune drops identities with no requests inside the window.
func (m *Memory) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.window)
	for id, hits := range m.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.hits, id)
		}
	}
}

// RunPruner calls Prune every interval until ctx is done.
func (m *Memory) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune()
		}
	}
}
