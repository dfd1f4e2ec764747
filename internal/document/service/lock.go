package service

import (
	"context"
	"errors"
	"time"

	"github.com/ARBAZ1233678/CollabSpace/internal/config"
	"github.com/ARBAZ1233678/CollabSpace/internal/document"
	"github.com/ARBAZ1233678/CollabSpace/internal/document/repository"
	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
	"github.com/ARBAZ1233678/CollabSpace/pkg/metrics"
)

// Lock grants the caller exclusive edit rights. Re-locking by the current
// holder refreshes the acquisition time; a lock older than the timeout is
// treated as abandoned and stolen. A live lock held by someone else fails
// with AlreadyLocked carrying the holder and acquisition time.
func (s *Service) Lock(ctx context.Context, id, callerID string) (*document.LockInfo, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		return nil, err
	}
	role, err := s.gate(ctx, doc.TeamID, callerID)
	if err != nil {
		return nil, err
	}
	// locking exists only to write; a Viewer holding a lock could block
	// editors without ever being able to edit
	if !role.CanWrite() {
		return nil, document.ErrForbidden
	}

	now := s.now()
	var prev *document.Document
	err = casRetry(func() error {
		var casErr error
		prev, casErr = s.repo.AcquireLock(ctx, id, callerID, now, s.stealCutoff(now))
		return casErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		if errors.Is(err, repository.ErrStale) {
			metrics.LockConflicts.Inc()
			cur, gerr := s.repo.Get(ctx, id)
			if gerr != nil {
				return nil, document.ErrNotFound
			}
			return nil, &document.AlreadyLockedError{Holder: cur.LockedBy, Since: derefTime(cur.LockedAt, now)}
		}
		return nil, err
	}

	switch {
	case !prev.IsLocked:
		metrics.LocksAcquired.WithLabelValues("fresh").Inc()
	case prev.LockedBy == callerID:
		metrics.LocksAcquired.WithLabelValues("refresh").Inc()
	default:
		metrics.LocksAcquired.WithLabelValues("steal").Inc()
		logger.Infof("doc %s: lock stolen from %s by %s after expiry", id, prev.LockedBy, callerID)
	}
	s.touch(ctx, id, callerID)
	return &document.LockInfo{DocumentID: id, Holder: callerID, Since: now}, nil
}

// Unlock releases the caller's lock. Unlocking an unlocked (or expired)
// document succeeds as a no-op. A non-holder needs force-unlock capability
// (team Admin or owner); otherwise the call fails with NotLockHolder.
func (s *Service) Unlock(ctx context.Context, id, callerID string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return document.ErrNotFound
		}
		return err
	}
	role, err := s.gate(ctx, doc.TeamID, callerID)
	if err != nil {
		return err
	}

	now := s.now()
	s.touch(ctx, id, callerID)

	if !doc.EffectivelyLocked(now, s.lockTimeout) {
		if doc.IsLocked {
			// lock already expired: clear it opportunistically, same
			// transition the sweep would make
			if cleared, err := s.repo.ClearExpiredLock(ctx, id, s.stealCutoff(now)); err == nil && cleared {
				metrics.LocksSwept.Inc()
			}
		}
		return nil
	}

	if doc.LockedBy == callerID {
		err := casRetry(func() error { return s.repo.ReleaseLock(ctx, id, callerID) })
		if errors.Is(err, repository.ErrStale) {
			// our lock was force-cleared and re-acquired concurrently
			return document.ErrNotLockHolder
		}
		if errors.Is(err, repository.ErrNotFound) {
			return document.ErrNotFound
		}
		return err
	}

	isOwner, err := s.auth.IsOwner(ctx, doc.TeamID, callerID)
	if err != nil {
		return err
	}
	if !membership.CanForceUnlock(role, isOwner) {
		return document.ErrNotLockHolder
	}
	logger.Infof("doc %s: lock held by %s force-released by %s", id, doc.LockedBy, callerID)
	err = casRetry(func() error { return s.repo.ReleaseLock(ctx, id, "") })
	if errors.Is(err, repository.ErrNotFound) {
		return document.ErrNotFound
	}
	return err
}

// SweepExpired clears every lock older than the timeout and returns how many
// it cleared. Each clear is a compare-and-set on the expired state, so a
// concurrent steal or release simply wins and the sweep moves on.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.stealCutoff(s.now())
	expired, err := s.repo.ListExpiredLocks(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	cleared := 0
	for _, d := range expired {
		ok, err := s.repo.ClearExpiredLock(ctx, d.ID, cutoff)
		if err != nil {
			logger.Warnf("sweep: clearing expired lock on doc %s: %v", d.ID, err)
			continue
		}
		if ok {
			cleared++
			logger.Infof("sweep: cleared expired lock on doc %s (was held by %s)", d.ID, d.LockedBy)
		}
	}
	if cleared > 0 {
		metrics.LocksSwept.Add(float64(cleared))
	}
	return cleared, nil
}

// RunSweeper runs the expiry sweep every lockTimeout/2 (at least one minute)
// until the context is cancelled. Correctness does not depend on it: every
// read/write path treats expired locks as unlocked on its own.
func (s *Service) RunSweeper(ctx context.Context) {
	interval := config.SweepInterval(s.lockTimeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Infof("lock sweeper running every %s (lock timeout %s)", interval, s.lockTimeout)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("lock sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				logger.Warnf("lock sweep failed: %v", err)
			}
		}
	}
}

func derefTime(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}
