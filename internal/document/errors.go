package document

import (
	"errors"
	"fmt"
	"time"
)

// The error taxonomy surfaced by the coordinator. NotFound, Unauthorized and
// Forbidden are terminal; AlreadyLocked and Conflict carry the state the
// caller needs to re-read and retry.
var (
	ErrNotFound      = errors.New("document not found")
	ErrUnauthorized  = errors.New("caller is not a member of the owning team")
	ErrForbidden     = errors.New("caller's role does not allow this operation")
	ErrNotLockHolder = errors.New("lock is held by another user")
)

// AlreadyLockedError reports a lock attempt that lost to a live holder.
type AlreadyLockedError struct {
	Holder string
	Since  time.Time
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("document already locked by %s since %s", e.Holder, e.Since.Format(time.RFC3339))
}

// ConflictError reports an edit rejected by the version check. It carries the
// server's current version and content so the caller can merge and retry.
type ConflictError struct {
	CurrentVersion int64
	CurrentContent string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.CurrentVersion)
}
