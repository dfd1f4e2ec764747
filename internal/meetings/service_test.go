package meetings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
)

func newMeetingService(t *testing.T) *Service {
	t.Helper()
	teams := membership.NewMemoryRepo()
	_, err := teams.Create(context.Background(), &membership.Team{
		ID:      "team-1",
		Name:    "Docs",
		OwnerID: "owner",
		Members: []membership.Member{
			{UserID: "alice", Role: membership.RoleMember},
			{UserID: "carol", Role: membership.RoleViewer},
		},
	})
	require.NoError(t, err)
	return NewService(NewMemoryRepo(), membership.NewAuthority(teams))
}

func schedule(t *testing.T, svc *Service, caller string) *Meeting {
	t.Helper()
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	m, err := svc.Schedule(context.Background(), "team-1", caller, "Sprint review", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	return m
}

func TestSchedule(t *testing.T) {
	svc := newMeetingService(t)
	ctx := context.Background()

	m := schedule(t, svc, "alice")
	assert.Equal(t, StatusScheduled, m.Status)
	assert.Equal(t, "alice", m.CreatedBy)

	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	_, err := svc.Schedule(ctx, "team-1", "alice", "bad", "", start, start)
	assert.ErrorIs(t, err, ErrInvalidTimes)

	_, err = svc.Schedule(ctx, "team-1", "carol", "viewer", "", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Schedule(ctx, "team-1", "stranger", "outsider", "", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetAndList(t *testing.T) {
	svc := newMeetingService(t)
	ctx := context.Background()
	m := schedule(t, svc, "alice")

	got, err := svc.Get(ctx, m.ID, "carol")
	require.NoError(t, err, "viewers can read meetings")
	assert.Equal(t, m.ID, got.ID)

	_, err = svc.Get(ctx, m.ID, "stranger")
	assert.ErrorIs(t, err, ErrUnauthorized)

	list, err := svc.ListByTeam(ctx, "team-1", "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSetStatusGates(t *testing.T) {
	svc := newMeetingService(t)
	ctx := context.Background()
	m := schedule(t, svc, "alice")

	// only the creator or an admin may change the status
	assert.ErrorIs(t, svc.SetStatus(ctx, m.ID, "carol", StatusCancelled), ErrForbidden)
	require.NoError(t, svc.SetStatus(ctx, m.ID, "alice", StatusInProgress))
	require.NoError(t, svc.SetStatus(ctx, m.ID, "owner", StatusCompleted))

	got, err := svc.Get(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestDeleteGates(t *testing.T) {
	svc := newMeetingService(t)
	ctx := context.Background()
	m := schedule(t, svc, "alice")

	assert.ErrorIs(t, svc.Delete(ctx, m.ID, "carol"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, m.ID, "alice"))

	_, err := svc.Get(ctx, m.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeTeam(t *testing.T) {
	svc := newMeetingService(t)
	ctx := context.Background()
	schedule(t, svc, "alice")
	schedule(t, svc, "owner")

	n, err := svc.PurgeTeam(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := svc.ListByTeam(ctx, "team-1", "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}
