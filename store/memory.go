package store

import (
	"context"
	"sync"
	"time"

	"profile-viewer/models"
)

type memoryEntry struct {
	state     models.QueryState
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (models.QueryState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[sessionID]
	if !ok {
		return models.QueryState{}, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, sessionID)
		return models.QueryState{}, false, nil
	}
	return cloneState(entry.state), true, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, state models.QueryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sessionID] = memoryEntry{state: cloneState(state), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *MemoryStore) Close() error {
	return nil
}

func cloneState(state models.QueryState) models.QueryState {
	if state.Record != nil {
		record := *state.Record
		state.Record = &record
	}
	return state
}
