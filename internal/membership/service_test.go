package membership

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPurger records which teams it was asked to purge.
type countingPurger struct {
	purged []string
	n      int64
}

func (p *countingPurger) PurgeTeam(ctx context.Context, teamID string) (int64, error) {
	p.purged = append(p.purged, teamID)
	return p.n, nil
}

func TestTeamCreateDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewTeamService(repo)
	ctx := context.Background()

	team, err := svc.Create(ctx, "Docs", "shared documents", "owner")
	require.NoError(t, err)
	require.NotEmpty(t, team.ID)

	got, err := repo.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, got.Plan)
	assert.True(t, got.Active)
	assert.Equal(t, "owner", got.OwnerID)
}

func TestTeamGetRequiresMembership(t *testing.T) {
	repo := NewMemoryRepo()
	seedTeam(t, repo)
	svc := NewTeamService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, "team-1", "alice")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "team-1", "stranger")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestSetMemberAdminOnly(t *testing.T) {
	repo := NewMemoryRepo()
	seedTeam(t, repo)
	svc := NewTeamService(repo)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetMember(ctx, "team-1", "alice", "dave", RoleMember), ErrForbidden)
	assert.ErrorIs(t, svc.SetMember(ctx, "team-1", "stranger", "dave", RoleMember), ErrNotMember)

	require.NoError(t, svc.SetMember(ctx, "team-1", "owner", "dave", RoleMember))

	// re-roling an existing member updates in place
	require.NoError(t, svc.SetMember(ctx, "team-1", "owner", "dave", RoleViewer))
	team, err := repo.Get(ctx, "team-1")
	require.NoError(t, err)
	role, ok := team.RoleOf("dave")
	require.True(t, ok)
	assert.Equal(t, RoleViewer, role)
}

func TestRemoveMember(t *testing.T) {
	repo := NewMemoryRepo()
	seedTeam(t, repo)
	svc := NewTeamService(repo)
	ctx := context.Background()

	// a member may not remove someone else
	assert.ErrorIs(t, svc.RemoveMember(ctx, "team-1", "alice", "carol"), ErrForbidden)

	// but may leave on their own
	require.NoError(t, svc.RemoveMember(ctx, "team-1", "carol", "carol"))
	team, err := repo.Get(ctx, "team-1")
	require.NoError(t, err)
	_, ok := team.RoleOf("carol")
	assert.False(t, ok)

	// the owner can never be removed
	assert.ErrorIs(t, svc.RemoveMember(ctx, "team-1", "owner", "owner"), ErrForbidden)

	// admins remove anyone else
	require.NoError(t, svc.RemoveMember(ctx, "team-1", "owner", "alice"))
}

func TestDeleteCascadesThroughPurgers(t *testing.T) {
	repo := NewMemoryRepo()
	seedTeam(t, repo)
	docs := &countingPurger{n: 3}
	meetings := &countingPurger{n: 1}
	svc := NewTeamService(repo, docs, meetings)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "team-1", "alice"), ErrForbidden)
	assert.Empty(t, docs.purged, "a refused delete must not purge anything")

	require.NoError(t, svc.Delete(ctx, "team-1", "owner"))
	assert.Equal(t, []string{"team-1"}, docs.purged)
	assert.Equal(t, []string{"team-1"}, meetings.purged)

	_, err := repo.Get(ctx, "team-1")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}
