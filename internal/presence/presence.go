package presence

import (
	"context"
	"sync"
	"time"
)

// Heartbeat is an ephemeral (document, user, last-seen) fact. It is advisory:
// refreshed on any authorized operation and expired after a short TTL, it only
// feeds the collaborator listing, never authorization or locking.
type Heartbeat struct {
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"userId"`
	LastSeen   time.Time `json:"lastSeen"`
}

// Store records heartbeats with last-write-wins semantics. Losing a Touch
// under a race costs at most a transiently stale collaborator list.
type Store interface {
	Touch(ctx context.Context, documentID, userID string, now time.Time) error
	// Active returns heartbeats for the document seen after cutoff.
	Active(ctx context.Context, documentID string, cutoff time.Time) ([]Heartbeat, error)
	// Drop removes every heartbeat for the document (used on delete).
	Drop(ctx context.Context, documentID string) error
}

// MemoryStore is the in-process Store used in tests and memory-only runs.
// Expiry is lazy: stale entries are skipped on read and overwritten on Touch.
type MemoryStore struct {
	mu    sync.Mutex
	beats map[string]map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{beats: make(map[string]map[string]time.Time)}
}

func (m *MemoryStore) Touch(ctx context.Context, documentID, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, ok := m.beats[documentID]
	if !ok {
		users = make(map[string]time.Time)
		m.beats[documentID] = users
	}
	users[userID] = now
	return nil
}

func (m *MemoryStore) Active(ctx context.Context, documentID string, cutoff time.Time) ([]Heartbeat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Heartbeat{}
	for userID, seen := range m.beats[documentID] {
		if seen.Before(cutoff) {
			delete(m.beats[documentID], userID)
			continue
		}
		out = append(out, Heartbeat{DocumentID: documentID, UserID: userID, LastSeen: seen})
	}
	return out, nil
}

func (m *MemoryStore) Drop(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.beats, documentID)
	return nil
}
