package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrStale means a compare-and-set did not match the expected lock or
	// version state. The caller re-reads and diagnoses.
	ErrStale = errors.New("document state changed")
)

// ContentMutation is the payload of an accepted edit. Nil fields are left
// untouched; Version and UpdatedAt are advanced by the repository as part of
// the same atomic write.
type ContentMutation struct {
	Title      *string
	Content    *string
	ModifiedBy string
	Now        time.Time
}

// Repository persists documents. Every method that transitions lock or
// version state is a single atomic compare-and-set: two concurrent callers
// observing the same prior state cannot both win.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	ListByTeam(ctx context.Context, teamID string) ([]*document.Document, error)
	Delete(ctx context.Context, id string) error
	// DeleteByTeam removes every document owned by the team and returns the
	// count. Used by the coordinator for explicit cascade on team deletion.
	DeleteByTeam(ctx context.Context, teamID string) (int64, error)

	// UpdateContent applies mut iff the stored version equals expectedVersion
	// (expectedVersion <= 0 skips the version check) and no other user holds
	// a live lock: the document must be unlocked, locked by userID, or carry
	// a lock acquired at or before stealCutoff. Returns the updated document,
	// ErrStale on a lost race, ErrNotFound when the id is unknown.
	UpdateContent(ctx context.Context, id, userID string, expectedVersion int64, stealCutoff time.Time, mut ContentMutation) (*document.Document, error)

	// AcquireLock grants the lock to userID iff the document is unlocked,
	// already held by userID, or held by a lock acquired at or before
	// stealCutoff. Returns the pre-acquisition document so the caller can
	// tell a fresh grant from a refresh or a steal.
	AcquireLock(ctx context.Context, id, userID string, now, stealCutoff time.Time) (*document.Document, error)

	// ReleaseLock clears the lock when held by holderID. Empty holderID
	// forces the release regardless of holder. Releasing an unlocked
	// document is a no-op. Returns ErrStale when another user holds it.
	ReleaseLock(ctx context.Context, id, holderID string) error

	// ListExpiredLocks returns documents whose lock was acquired at or
	// before cutoff. Used by the background sweep.
	ListExpiredLocks(ctx context.Context, cutoff time.Time) ([]*document.Document, error)

	// ClearExpiredLock transitions a still-expired lock to unlocked.
	// Reports whether a lock was actually cleared; a concurrent steal or
	// release makes this false, which is fine — both transitions agree.
	ClearExpiredLock(ctx context.Context, id string, cutoff time.Time) (bool, error)
}
