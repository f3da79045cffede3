package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationList remembers revoked token IDs until the token would have
// expired anyway. *store.Redis implements it for multi-instance setups.
type RevocationList interface {
	MarkUntil(ctx context.Context, key string, expiresAt time.Time) error
	Marked(ctx context.Context, key string) (bool, error)
}

// MemoryRevocations is a process-local RevocationList.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty list.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time), now: time.Now}
}

// MarkUntil records key until expiresAt and drops entries that already
// expired.
func (m *MemoryRevocations) MarkUntil(_ context.Context, key string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
	if expiresAt.After(now) {
		m.entries[key] = expiresAt
	}
	return nil
}

// Marked reports whether key is recorded and not yet expired.
func (m *MemoryRevocations) Marked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[key]
	return ok && exp.After(m.now()), nil
}
