package session

import (
	"context"
	"sync"
	"time"

	"github.com/tradechat-bot/server/internal/conversation"
)

type memoryEntry struct {
	touched time.Time
	state   *conversation.State
}

// MemoryStore is an in-process session store with eviction on read. Used
// by tests and single-instance local runs; production wiring uses the
// Redis store.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	data map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		data: map[string]memoryEntry{},
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (*conversation.State, error) {
	sessionID = NormalizeID(sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[sessionID]
	if !ok {
		return conversation.NewState(), nil
	}
	if m.now().Sub(entry.touched) > m.ttl {
		delete(m.data, sessionID)
		return conversation.NewState(), nil
	}
	return entry.state.Clone(), nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID string, state *conversation.State) error {
	sessionID = NormalizeID(sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[sessionID] = memoryEntry{touched: m.now(), state: state.Clone()}
	return nil
}

var _ Store = (*MemoryStore)(nil)
