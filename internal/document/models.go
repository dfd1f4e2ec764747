package document

import "time"

// Type classifies the document payload for the frontend editor selection.
type Type string

const (
	TypeDocument     Type = "DOCUMENT"
	TypeSpreadsheet  Type = "SPREADSHEET"
	TypePresentation Type = "PRESENTATION"
	TypeCode         Type = "CODE"
	TypeMarkdown     Type = "MARKDOWN"
)

// Document is the persistent document model. The lock fields move together:
// IsLocked is true iff LockedBy and LockedAt are both set. Version starts at 1
// and increases by exactly 1 on every accepted content mutation.
type Document struct {
	ID             string     `json:"id" bson:"id"`
	TeamID         string     `json:"teamId" bson:"teamId"`
	Title          string     `json:"title" bson:"title"`
	Content        string     `json:"content,omitempty" bson:"content,omitempty"`
	Type           Type       `json:"type" bson:"type"`
	CreatedBy      string     `json:"createdBy" bson:"createdBy"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty" bson:"lastModifiedBy,omitempty"`
	Version        int64      `json:"version" bson:"version"`
	IsLocked       bool       `json:"isLocked" bson:"isLocked"`
	LockedBy       string     `json:"lockedBy,omitempty" bson:"lockedBy,omitempty"`
	LockedAt       *time.Time `json:"lockedAt,omitempty" bson:"lockedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// LockInfo describes the current lock as returned to callers.
type LockInfo struct {
	DocumentID string    `json:"documentId"`
	Holder     string    `json:"holder"`
	Since      time.Time `json:"since"`
}

// CollaboratorView is one entry in the active-collaborator listing: the lock
// holder first, then viewers with a live presence heartbeat.
type CollaboratorView struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name,omitempty"`
	Since        time.Time `json:"since"`
	IsLockHolder bool      `json:"isLockHolder"`
}

// LockExpired reports whether the lock, if any, has outlived the timeout at
// the given instant. An expired lock is treated as unlocked on every
// read/write path, so correctness never depends on the sweep schedule.
func (d *Document) LockExpired(now time.Time, timeout time.Duration) bool {
	if !d.IsLocked || d.LockedAt == nil {
		return false
	}
	return now.Sub(*d.LockedAt) >= timeout
}

// EffectivelyLocked reports whether a live (unexpired) lock is present.
func (d *Document) EffectivelyLocked(now time.Time, timeout time.Duration) bool {
	return d.IsLocked && !d.LockExpired(now, timeout)
}

// HeldBy reports whether userID holds a live lock on the document.
func (d *Document) HeldBy(userID string, now time.Time, timeout time.Duration) bool {
	return d.EffectivelyLocked(now, timeout) && d.LockedBy == userID
}
