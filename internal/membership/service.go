package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/ARBAZ1233678/CollabSpace/pkg/logger"
)

var ErrForbidden = errors.New("caller's role does not allow this operation")

// Purger removes a team's dependent records (documents, meetings). Team
// deletion runs every purger before the team row goes away, so nothing can
// outlive its team. Explicit ordering, no storage-level cascade.
type Purger interface {
	PurgeTeam(ctx context.Context, teamID string) (int64, error)
}

// TeamService owns team lifecycle and the membership mutations the HTTP layer
// exposes. Reads for authorization go through Authority instead.
type TeamService struct {
	repo    Repository
	purgers []Purger
}

func NewTeamService(repo Repository, purgers ...Purger) *TeamService {
	return &TeamService{repo: repo, purgers: purgers}
}

func (s *TeamService) Authority() *Authority { return NewAuthority(s.repo) }

func (s *TeamService) Create(ctx context.Context, name, description, ownerID string) (*Team, error) {
	t := &Team{Name: name, Description: description, OwnerID: ownerID}
	if _, err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return t, nil
}

func (s *TeamService) Get(ctx context.Context, teamID, callerID string) (*Team, error) {
	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if _, ok := t.RoleOf(callerID); !ok {
		return nil, ErrNotMember
	}
	return t, nil
}

// SetMember adds or re-roles a member. Only Admins (and the owner) may do it.
func (s *TeamService) SetMember(ctx context.Context, teamID, callerID, userID string, role Role) error {
	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	callerRole, ok := t.RoleOf(callerID)
	if !ok {
		return ErrNotMember
	}
	if callerRole != RoleAdmin {
		return ErrForbidden
	}
	return s.repo.SetMember(ctx, teamID, userID, role)
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, callerID, userID string) error {
	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	callerRole, ok := t.RoleOf(callerID)
	if !ok {
		return ErrNotMember
	}
	// members may leave on their own; removing someone else takes Admin
	if userID != callerID && callerRole != RoleAdmin {
		return ErrForbidden
	}
	if userID == t.OwnerID {
		return ErrForbidden
	}
	return s.repo.RemoveMember(ctx, teamID, userID)
}

// Delete removes the team and everything it owns. Documents and meetings are
// purged first so no record is left pointing at a dead team.
func (s *TeamService) Delete(ctx context.Context, teamID, callerID string) error {
	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	role, ok := t.RoleOf(callerID)
	if !ok {
		return ErrNotMember
	}
	if role != RoleAdmin {
		return ErrForbidden
	}
	for _, p := range s.purgers {
		n, err := p.PurgeTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("purge team %s: %w", teamID, err)
		}
		if n > 0 {
			logger.Infof("team %s: purged %d dependent records", teamID, n)
		}
	}
	return s.repo.Delete(ctx, teamID)
}
