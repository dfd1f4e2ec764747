package membership

import (
	"context"
	"errors"
)

// ErrNotMember is returned by RoleOf when the user has no membership fact on
// the team. Callers surface this as Unauthorized.
var ErrNotMember = errors.New("user is not a member of the team")

// Authority resolves team membership and roles. It is a pure read-side
// lookup; every document and meeting operation calls it first.
type Authority struct {
	repo Repository
}

func NewAuthority(r Repository) *Authority { return &Authority{repo: r} }

// RoleOf returns the caller's role on the team, ErrNotMember when there is no
// membership, or ErrTeamNotFound when the team id is unknown.
func (a *Authority) RoleOf(ctx context.Context, teamID, userID string) (Role, error) {
	t, err := a.repo.Get(ctx, teamID)
	if err != nil {
		return "", err
	}
	role, ok := t.RoleOf(userID)
	if !ok {
		return "", ErrNotMember
	}
	return role, nil
}

// CanForceUnlock reports whether the caller may clear another user's lock:
// team Admins and the team owner (the owner resolves to Admin already, the
// flag is kept for call sites that checked ownership separately).
func CanForceUnlock(role Role, isOwner bool) bool {
	return role == RoleAdmin || isOwner
}

// IsOwner reports whether userID owns the team.
func (a *Authority) IsOwner(ctx context.Context, teamID, userID string) (bool, error) {
	t, err := a.repo.Get(ctx, teamID)
	if err != nil {
		return false, err
	}
	return t.OwnerID == userID, nil
}
