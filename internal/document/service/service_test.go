package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARBAZ1233678/CollabSpace/internal/document"
	"github.com/ARBAZ1233678/CollabSpace/internal/document/repository"
	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
	"github.com/ARBAZ1233678/CollabSpace/internal/presence"
)

// fakeDirectory resolves user ids to display names from a fixed map.
type fakeDirectory struct {
	names map[string]string
}

func (f *fakeDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	return f.names[userID], nil
}

// fixture wires a coordinator over memory-backed stores with a controllable
// clock. The team has an owner, two writing members and one viewer.
type fixture struct {
	svc   *Service
	repo  *repository.MemoryRepo
	beats *presence.MemoryStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	teams := membership.NewMemoryRepo()
	_, err := teams.Create(context.Background(), &membership.Team{
		ID:      "team-1",
		Name:    "Docs",
		OwnerID: "owner",
		Members: []membership.Member{
			{UserID: "alice", Role: membership.RoleMember},
			{UserID: "bob", Role: membership.RoleMember},
			{UserID: "carol", Role: membership.RoleViewer},
		},
	})
	require.NoError(t, err)

	f := &fixture{
		repo:  repository.NewMemoryRepo(),
		beats: presence.NewMemoryStore(),
		now:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.repo, membership.NewAuthority(teams), f.beats, Options{
		Users: &fakeDirectory{names: map[string]string{"alice": "Alice", "bob": "Bob", "carol": "Carol"}},
		Clock: func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) create(t *testing.T, creator string) *document.Document {
	t.Helper()
	doc, err := f.svc.Create(context.Background(), "team-1", creator, "Notes", "initial", document.TypeMarkdown)
	require.NoError(t, err)
	return doc
}

func strptr(s string) *string { return &s }

func TestCreateRequiresWriteRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, "alice")
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, document.TypeMarkdown, doc.Type)

	_, err := f.svc.Create(ctx, "team-1", "carol", "x", "", "")
	assert.ErrorIs(t, err, document.ErrForbidden)

	_, err = f.svc.Create(ctx, "team-1", "stranger", "x", "", "")
	assert.ErrorIs(t, err, document.ErrUnauthorized)

	_, err = f.svc.Create(ctx, "no-such-team", "alice", "x", "", "")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestCreateDefaultsType(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Create(context.Background(), "team-1", "alice", "Notes", "", "")
	require.NoError(t, err)
	assert.Equal(t, document.TypeDocument, doc.Type)
}

func TestGetGatesOnMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	got, err := f.svc.Get(ctx, doc.ID, "carol")
	require.NoError(t, err, "viewers can read")
	assert.Equal(t, doc.ID, got.ID)

	_, err = f.svc.Get(ctx, doc.ID, "stranger")
	assert.ErrorIs(t, err, document.ErrUnauthorized)

	_, err = f.svc.Get(ctx, "missing", "alice")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestLockEditConflictScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	// alice locks, bob is refused with the holder identity
	info, err := f.svc.Lock(ctx, doc.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Holder)

	_, err = f.svc.Lock(ctx, doc.ID, "bob")
	var locked *document.AlreadyLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "alice", locked.Holder)
	assert.Equal(t, f.now, locked.Since)

	// alice edits at version 1 and the document moves to 2
	updated, err := f.svc.Update(ctx, doc.ID, "alice", 1, nil, strptr("alice's edit"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// bob's stale edit is refused while the lock is held
	_, err = f.svc.Update(ctx, doc.ID, "bob", 1, nil, strptr("bob's edit"))
	assert.ErrorIs(t, err, document.ErrNotLockHolder)

	// after alice unlocks, bob's stale edit surfaces the version conflict
	require.NoError(t, f.svc.Unlock(ctx, doc.ID, "alice"))
	_, err = f.svc.Update(ctx, doc.ID, "bob", 1, nil, strptr("bob's edit"))
	var conflict *document.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.CurrentVersion)
	assert.Equal(t, "alice's edit", conflict.CurrentContent)

	// and a rejected edit never advances the version
	got, err := f.svc.Get(ctx, doc.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "alice's edit", got.Content)
}

func TestVersionIncrementsByOnePerEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	for i := int64(1); i <= 5; i++ {
		updated, err := f.svc.Update(ctx, doc.ID, "alice", i, nil, strptr("edit"))
		require.NoError(t, err)
		assert.Equal(t, i+1, updated.Version)
	}
}

func TestTitleOnlyEditBumpsVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	updated, err := f.svc.Update(ctx, doc.ID, "alice", 1, strptr("Renamed"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "initial", updated.Content)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUpdateWithoutExpectedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Lock(ctx, doc.ID, "alice")
	require.NoError(t, err)

	// the holder may skip the precondition; the version still advances
	updated, err := f.svc.Update(ctx, doc.ID, "alice", 0, nil, strptr("lww"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
}

func TestUpdateWithoutLockDoesNotPinDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	// no explicit lock: the edit goes through and leaves the doc unlocked
	updated, err := f.svc.Update(ctx, doc.ID, "alice", 1, nil, strptr("quick fix"))
	require.NoError(t, err)
	assert.False(t, updated.IsLocked)

	// so bob can lock immediately afterwards
	_, err = f.svc.Lock(ctx, doc.ID, "bob")
	assert.NoError(t, err)
}

func TestUpdateRoleGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Update(ctx, doc.ID, "carol", 1, nil, strptr("viewer edit"))
	assert.ErrorIs(t, err, document.ErrForbidden)

	_, err = f.svc.Update(ctx, doc.ID, "stranger", 1, nil, strptr("outsider edit"))
	assert.ErrorIs(t, err, document.ErrUnauthorized)

	_, err = f.svc.Update(ctx, "missing", "alice", 1, nil, strptr("x"))
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	// another member is not the creator and not an admin
	assert.ErrorIs(t, f.svc.Delete(ctx, doc.ID, "bob"), document.ErrForbidden)

	// the creator may delete
	require.NoError(t, f.svc.Delete(ctx, doc.ID, "alice"))
	assert.ErrorIs(t, f.svc.Delete(ctx, doc.ID, "alice"), document.ErrNotFound)

	// a team admin may delete someone else's document
	doc2 := f.create(t, "alice")
	assert.NoError(t, f.svc.Delete(ctx, doc2.ID, "owner"))
}

func TestDeleteRefusedWhileLockedByOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Lock(ctx, doc.ID, "bob")
	require.NoError(t, err)

	err = f.svc.Delete(ctx, doc.ID, "owner")
	var locked *document.AlreadyLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "bob", locked.Holder)

	// the holder's own lock does not block them
	doc2 := f.create(t, "alice")
	_, err = f.svc.Lock(ctx, doc2.ID, "alice")
	require.NoError(t, err)
	assert.NoError(t, f.svc.Delete(ctx, doc2.ID, "alice"))
}

func TestActiveCollaborators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	// alice reads (heartbeat), bob locks, carol reads a bit later
	_, err := f.svc.Get(ctx, doc.ID, "alice")
	require.NoError(t, err)
	f.advance(10 * time.Second)
	_, err = f.svc.Lock(ctx, doc.ID, "bob")
	require.NoError(t, err)
	f.advance(10 * time.Second)
	_, err = f.svc.Get(ctx, doc.ID, "carol")
	require.NoError(t, err)

	collabs, err := f.svc.ActiveCollaborators(ctx, doc.ID, "carol")
	require.NoError(t, err)
	require.Len(t, collabs, 3)

	// lock holder first, then the rest most recent first
	assert.Equal(t, "bob", collabs[0].UserID)
	assert.True(t, collabs[0].IsLockHolder)
	assert.Equal(t, "Bob", collabs[0].Name)
	assert.Equal(t, "carol", collabs[1].UserID)
	assert.False(t, collabs[1].IsLockHolder)
	assert.Equal(t, "alice", collabs[2].UserID)
}

func TestCollaboratorsDropAfterHeartbeatTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Get(ctx, doc.ID, "bob")
	require.NoError(t, err)

	// bob goes idle past the TTL; carol's listing refreshes her own beat
	f.advance(DefaultHeartbeatTTL + time.Second)
	collabs, err := f.svc.ActiveCollaborators(ctx, doc.ID, "carol")
	require.NoError(t, err)
	require.Len(t, collabs, 1)
	assert.Equal(t, "carol", collabs[0].UserID)
}

func TestExpiredLockHolderLeavesCollaborators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Lock(ctx, doc.ID, "alice")
	require.NoError(t, err)

	f.advance(f.svc.LockTimeout() + time.Second)
	collabs, err := f.svc.ActiveCollaborators(ctx, doc.ID, "bob")
	require.NoError(t, err)
	for _, c := range collabs {
		assert.False(t, c.IsLockHolder, "an expired lock must not mark a holder")
		assert.NotEqual(t, "alice", c.UserID)
	}
}

func TestExpiredLockMaskedOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	_, err := f.svc.Lock(ctx, doc.ID, "alice")
	require.NoError(t, err)

	f.advance(f.svc.LockTimeout() + time.Second)
	got, err := f.svc.Get(ctx, doc.ID, "bob")
	require.NoError(t, err)
	assert.False(t, got.IsLocked)
	assert.Empty(t, got.LockedBy)
	assert.Nil(t, got.LockedAt)
}

func TestListByTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "alice")
	f.create(t, "bob")

	docs, err := f.svc.ListByTeam(ctx, "team-1", "carol")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = f.svc.ListByTeam(ctx, "team-1", "stranger")
	assert.ErrorIs(t, err, document.ErrUnauthorized)
}

func TestPurgeTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "alice")
	f.create(t, "alice")

	n, err := f.svc.PurgeTeam(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	docs, err := f.repo.ListByTeam(ctx, "team-1")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUpdateRetriesTransientFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, "alice")

	flaky := &flakyRepo{Repository: f.repo, failures: 1}
	svc := New(flaky, f.svc.auth, f.beats, Options{Clock: func() time.Time { return f.now }})

	updated, err := svc.Update(ctx, doc.ID, "alice", 1, nil, strptr("retried"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 2, flaky.calls)
}

// flakyRepo fails UpdateContent with a transient error the first n times.
type flakyRepo struct {
	repository.Repository
	failures int
	calls    int
}

func (r *flakyRepo) UpdateContent(ctx context.Context, id, userID string, expectedVersion int64, stealCutoff time.Time, mut repository.ContentMutation) (*document.Document, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, errors.New("connection reset")
	}
	return r.Repository.UpdateContent(ctx, id, userID, expectedVersion, stealCutoff, mut)
}
