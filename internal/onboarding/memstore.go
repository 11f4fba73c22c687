package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbuy/stores/internal/domain"
)

// DraftStore persists serialized wizard envelopes per session.
// Load returns domain.ErrNotFound for an unknown or expired session.
type DraftStore interface {
	Load(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	Save(ctx context.Context, sessionID uuid.UUID, data []byte) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local DraftStore with per-entry expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore whose entries expire ttl after their last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[uuid.UUID]memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[sessionID]
	if !ok || !m.now().Before(e.expiresAt) {
		delete(m.entries, sessionID)
		return nil, fmt.Errorf("onboarding.MemoryStore.Load: %w", domain.ErrNotFound)
	}
	return append([]byte(nil), e.data...), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[sessionID] = memEntry{
		data:      append([]byte(nil), data...),
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, sessionID)
	return nil
}

// Sweep drops expired entries until ctx is done.
func (m *MemoryStore) Sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for id, e := range m.entries {
				if !now.Before(e.expiresAt) {
					delete(m.entries, id)
				}
			}
			m.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}
