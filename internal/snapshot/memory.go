package snapshot

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/focusd/internal/focus"
)

// MemoryStore is a process-local Store. It backs tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.Mutex
	snap   focus.Snapshot
	saves  int
	FailOn func(n int) error // optional: called with the 1-based save number
}

// NewMemoryStore returns a store preloaded with snap.
func NewMemoryStore(snap focus.Snapshot) *MemoryStore {
	return &MemoryStore{snap: snap}
}

func (m *MemoryStore) Load(_ context.Context) (focus.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryStore) Save(_ context.Context, snap focus.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.FailOn != nil {
		if err := m.FailOn(m.saves); err != nil {
			return err
		}
	}
	m.snap = snap
	return nil
}

// Saves reports how many Save calls were made, failed ones included.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }
