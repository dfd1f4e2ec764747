package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
)

// MemoryRepo is an in-memory repository used for unit tests and for running
// the coordinator without MongoDB. A single mutex around each primitive gives
// the same atomicity the Mongo repo gets from single-filter updates.
type MemoryRepo struct {
	mu    sync.Mutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func clone(d *document.Document) *document.Document {
	cp := *d
	if d.LockedAt != nil {
		ts := *d.LockedAt
		cp.LockedAt = &ts
	}
	return &cp
}

// lockMatches reports whether userID may take or hold the lock given the
// stored state: unlocked, own lock, or a lock old enough to steal.
func lockMatches(d *document.Document, userID string, stealCutoff time.Time) bool {
	if !d.IsLocked {
		return true
	}
	if d.LockedBy == userID {
		return true
	}
	return d.LockedAt != nil && !d.LockedAt.After(stealCutoff)
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.store[doc.ID] = clone(doc)
	return doc.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.store[id]; ok {
		return clone(d), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListByTeam(ctx context.Context, teamID string) ([]*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if d.TeamID == teamID {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) DeleteByTeam(ctx context.Context, teamID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.store {
		if d.TeamID == teamID {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) UpdateContent(ctx context.Context, id, userID string, expectedVersion int64, stealCutoff time.Time, mut ContentMutation) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if expectedVersion > 0 && d.Version != expectedVersion {
		return nil, ErrStale
	}
	if !lockMatches(d, userID, stealCutoff) {
		return nil, ErrStale
	}
	if mut.Title != nil {
		d.Title = *mut.Title
	}
	if mut.Content != nil {
		d.Content = *mut.Content
	}
	d.LastModifiedBy = mut.ModifiedBy
	d.Version++
	d.UpdatedAt = mut.Now
	return clone(d), nil
}

func (m *MemoryRepo) AcquireLock(ctx context.Context, id, userID string, now, stealCutoff time.Time) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !lockMatches(d, userID, stealCutoff) {
		return nil, ErrStale
	}
	prev := clone(d)
	ts := now
	d.IsLocked = true
	d.LockedBy = userID
	d.LockedAt = &ts
	return prev, nil
}

func (m *MemoryRepo) ReleaseLock(ctx context.Context, id, holderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if !d.IsLocked {
		return nil
	}
	if holderID != "" && d.LockedBy != holderID {
		return ErrStale
	}
	d.IsLocked = false
	d.LockedBy = ""
	d.LockedAt = nil
	return nil
}

func (m *MemoryRepo) ListExpiredLocks(ctx context.Context, cutoff time.Time) ([]*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*document.Document{}
	for _, d := range m.store {
		if d.IsLocked && d.LockedAt != nil && !d.LockedAt.After(cutoff) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (m *MemoryRepo) ClearExpiredLock(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return false, nil
	}
	if !d.IsLocked || d.LockedAt == nil || d.LockedAt.After(cutoff) {
		return false, nil
	}
	d.IsLocked = false
	d.LockedBy = ""
	d.LockedAt = nil
	return true, nil
}
