package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohammad-safakhou/flytogether/models"
)

// MemoryStore keeps sessions in process memory. Contents are lost on
// restart; it backs tests and single-instance development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, id string, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	s = s.Clone()
	s.SessionID = id
	s.CreatedAt = prev.CreatedAt
	s.UpdatedAt = m.now()
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) Create(ctx context.Context, s models.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := NewSessionID()
	for _, taken := m.sessions[id]; taken; _, taken = m.sessions[id] {
		id = NewSessionID()
	}
	s = s.Clone()
	s.SessionID = id
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.sessions[id] = s
	return id, nil
}

func (m *MemoryStore) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
