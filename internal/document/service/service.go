package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
	"github.com/ARBAZ1233678/CollabSpace/internal/document/repository"
	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/internal/presence"
	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
	"github.com/ARBAZ1233678/CollabSpace/pkg/metrics"
)

// Directory resolves user ids to display names for the collaborator listing.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Archiver stores the content of each accepted version. Optional; failures
// are logged and never fail the edit.
type Archiver interface {
	Put(ctx context.Context, documentID string, version int64, content string) error
}

// Options tune the coordinator. Zero values fall back to the defaults.
type Options struct {
	LockTimeout  time.Duration // default 30m
	HeartbeatTTL time.Duration // default 60s
	Users        Directory     // optional
	Snapshots    Archiver      // optional
	Clock        func() time.Time
}

const (
	DefaultLockTimeout  = 30 * time.Minute
	DefaultHeartbeatTTL = 60 * time.Second
)

// Service is the document coordinator. Every public operation runs the
// membership gate first, then delegates to the repository's compare-and-set
// primitives; delegate failures surface unchanged so callers keep the
// distinguishing error kind.
type Service struct {
	repo         repository.Repository
	auth         *membership.Authority
	beats        presence.Store
	users        Directory
	snaps        Archiver
	lockTimeout  time.Duration
	heartbeatTTL time.Duration
	now          func() time.Time
}

func New(repo repository.Repository, auth *membership.Authority, beats presence.Store, opts Options) *Service {
	s := &Service{
		repo:         repo,
		auth:         auth,
		beats:        beats,
		users:        opts.Users,
		snaps:        opts.Snapshots,
		lockTimeout:  opts.LockTimeout,
		heartbeatTTL: opts.HeartbeatTTL,
		now:          opts.Clock,
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = DefaultLockTimeout
	}
	if s.heartbeatTTL <= 0 {
		s.heartbeatTTL = DefaultHeartbeatTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *Service) LockTimeout() time.Duration { return s.lockTimeout }

// stealCutoff is the instant before which a lock acquisition counts as
// abandoned: locks with lockedAt <= cutoff are stealable.
func (s *Service) stealCutoff(now time.Time) time.Time {
	return now.Add(-s.lockTimeout)
}

// gate resolves the caller's role, mapping membership errors onto the
// document error taxonomy.
func (s *Service) gate(ctx context.Context, teamID, userID string) (membership.Role, error) {
	role, err := s.auth.RoleOf(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			return "", document.ErrUnauthorized
		}
		if errors.Is(err, membership.ErrTeamNotFound) {
			return "", document.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// casRetry retries the atomic step once on a transient persistence failure.
// CAS misses and unknown ids are terminal and returned as-is; retrying the
// CAS is safe because it either applies cleanly or fails cleanly.
func casRetry(fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, repository.ErrStale) || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	logger.Warnf("transient persistence failure, retrying once: %v", err)
	return fn()
}

// touch refreshes the caller's presence heartbeat. Advisory only.
func (s *Service) touch(ctx context.Context, documentID, userID string) {
	if err := s.beats.Touch(ctx, documentID, userID, s.now()); err != nil {
		logger.Debugf("presence touch failed for doc %s user %s: %v", documentID, userID, err)
	}
}

// maskExpired presents an expired lock as unlocked. Persistent cleanup is the
// sweep's job; readers must not depend on it having run.
func (s *Service) maskExpired(d *document.Document) *document.Document {
	if d.LockExpired(s.now(), s.lockTimeout) {
		d.IsLocked = false
		d.LockedBy = ""
		d.LockedAt = nil
	}
	return d
}

func (s *Service) Create(ctx context.Context, teamID, creatorID, title, content string, typ document.Type) (*document.Document, error) {
	role, err := s.gate(ctx, teamID, creatorID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, document.ErrForbidden
	}
	if typ == "" {
		typ = document.TypeDocument
	}
	doc := &document.Document{
		TeamID:    teamID,
		Title:     title,
		Content:   content,
		Type:      typ,
		CreatedBy: creatorID,
	}
	if _, err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.touch(ctx, doc.ID, creatorID)
	s.archive(ctx, doc.ID, doc.Version, doc.Content)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id, callerID string) (*document.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.gate(ctx, doc.TeamID, callerID); err != nil {
		return nil, err
	}
	s.touch(ctx, id, callerID)
	return s.maskExpired(doc), nil
}

func (s *Service) ListByTeam(ctx context.Context, teamID, callerID string) ([]*document.Document, error) {
	if _, err := s.gate(ctx, teamID, callerID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		s.maskExpired(d)
	}
	return docs, nil
}

// Update applies an edit under optimistic concurrency. expectedVersion <= 0
// skips the version precondition (last write wins under the lock). When the
// document is unlocked or its lock expired, the single compare-and-set both
// stands in for the lock and applies the write, so an implicit editor never
// races another holder and never pins the document afterwards.
func (s *Service) Update(ctx context.Context, id, callerID string, expectedVersion int64, newTitle, newContent *string) (*document.Document, error) {
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
	if !role.CanWrite() {
		return nil, document.ErrForbidden
	}

	now := s.now()
	mut := repository.ContentMutation{
		Title:      newTitle,
		Content:    newContent,
		ModifiedBy: callerID,
		Now:        now,
	}
	var updated *document.Document
	err = casRetry(func() error {
		var casErr error
		updated, casErr = s.repo.UpdateContent(ctx, id, callerID, expectedVersion, s.stealCutoff(now), mut)
		return casErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		if errors.Is(err, repository.ErrStale) {
			return nil, s.diagnoseEditFailure(ctx, id, callerID, expectedVersion)
		}
		return nil, err
	}

	if !doc.HeldBy(callerID, now, s.lockTimeout) {
		metrics.LocksAcquired.WithLabelValues("auto").Inc()
	}
	s.touch(ctx, id, callerID)
	s.archive(ctx, id, updated.Version, updated.Content)
	return s.maskExpired(updated), nil
}

// diagnoseEditFailure re-reads the document after a lost compare-and-set and
// picks the error kind the caller can act on: lock precondition first, then
// the version check, matching the order the filter enforces them.
func (s *Service) diagnoseEditFailure(ctx context.Context, id, callerID string, expectedVersion int64) error {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return document.ErrNotFound
		}
		return err
	}
	now := s.now()
	if cur.EffectivelyLocked(now, s.lockTimeout) && cur.LockedBy != callerID {
		return document.ErrNotLockHolder
	}
	metrics.EditConflicts.Inc()
	return &document.ConflictError{CurrentVersion: cur.Version, CurrentContent: cur.Content}
}

// Delete removes a document. Only the creator or a team Admin may delete, and
// not while another user holds a live lock.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
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
	if doc.CreatedBy != callerID && role != membership.RoleAdmin {
		return document.ErrForbidden
	}
	now := s.now()
	if doc.EffectivelyLocked(now, s.lockTimeout) && doc.LockedBy != callerID {
		return &document.AlreadyLockedError{Holder: doc.LockedBy, Since: *doc.LockedAt}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return document.ErrNotFound
		}
		return err
	}
	if err := s.beats.Drop(ctx, id); err != nil {
		logger.Debugf("presence drop failed for doc %s: %v", id, err)
	}
	return nil
}

// ActiveCollaborators derives the current viewer/editor list: the live lock
// holder first, then users with an unexpired heartbeat, most recent first.
func (s *Service) ActiveCollaborators(ctx context.Context, id, callerID string) ([]document.CollaboratorView, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, document.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.gate(ctx, doc.TeamID, callerID); err != nil {
		return nil, err
	}
	s.touch(ctx, id, callerID)

	now := s.now()
	out := []document.CollaboratorView{}
	holder := ""
	if doc.EffectivelyLocked(now, s.lockTimeout) {
		holder = doc.LockedBy
		out = append(out, document.CollaboratorView{
			UserID:       holder,
			Name:         s.displayName(ctx, holder),
			Since:        *doc.LockedAt,
			IsLockHolder: true,
		})
	}

	beats, err := s.beats.Active(ctx, id, now.Add(-s.heartbeatTTL))
	if err != nil {
		return nil, err
	}
	sort.Slice(beats, func(i, j int) bool { return beats[i].LastSeen.After(beats[j].LastSeen) })
	for _, hb := range beats {
		if hb.UserID == holder {
			continue
		}
		out = append(out, document.CollaboratorView{
			UserID: hb.UserID,
			Name:   s.displayName(ctx, hb.UserID),
			Since:  hb.LastSeen,
		})
	}
	return out, nil
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	if s.users == nil {
		return ""
	}
	name, err := s.users.DisplayName(ctx, userID)
	if err != nil {
		logger.Debugf("display name lookup failed for %s: %v", userID, err)
		return ""
	}
	return name
}

func (s *Service) archive(ctx context.Context, id string, version int64, content string) {
	if s.snaps == nil {
		return
	}
	if err := s.snaps.Put(ctx, id, version, content); err != nil {
		logger.Warnf("snapshot archive failed for doc %s v%d: %v", id, version, err)
	}
}

// PurgeTeam removes every document of the team and their heartbeats. Called
// by the team coordinator during explicit cascade deletion.
func (s *Service) PurgeTeam(ctx context.Context, teamID string) (int64, error) {
	docs, err := s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteByTeam(ctx, teamID)
	if err != nil {
		return n, err
	}
	for _, d := range docs {
		if err := s.beats.Drop(ctx, d.ID); err != nil {
			logger.Debugf("presence drop failed for doc %s: %v", d.ID, err)
		}
	}
	return n, nil
}
