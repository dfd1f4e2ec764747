package meetings

import (
	"context"
	"errors"
	"time"

	"github.com/ARBAZ1233678/CollabSpace/internal/membership"
)

var (
	ErrUnauthorized = errors.New("caller is not a member of the team")
	ErrForbidden    = errors.New("caller's role does not allow this operation")
	ErrInvalidTimes = errors.New("meeting end time must be after start time")
)

// Service gates meeting CRUD on team membership: any member may read,
// writers may schedule, only the creator or an Admin may cancel or delete.
type Service struct {
	repo Repository
	auth *membership.Authority
}

func NewService(repo Repository, auth *membership.Authority) *Service {
	return &Service{repo: repo, auth: auth}
}

func (s *Service) roleOf(ctx context.Context, teamID, userID string) (membership.Role, error) {
	role, err := s.auth.RoleOf(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return role, nil
}

func (s *Service) Schedule(ctx context.Context, teamID, callerID, title, description string, start, end time.Time) (*Meeting, error) {
	role, err := s.roleOf(ctx, teamID, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, ErrForbidden
	}
	if !end.After(start) {
		return nil, ErrInvalidTimes
	}
	m := &Meeting{
		TeamID:      teamID,
		Title:       title,
		Description: description,
		CreatedBy:   callerID,
		StartTime:   start,
		EndTime:     end,
	}
	if _, err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id, callerID string) (*Meeting, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.roleOf(ctx, m.TeamID, callerID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListByTeam(ctx context.Context, teamID, callerID string) ([]*Meeting, error) {
	if _, err := s.roleOf(ctx, teamID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByTeam(ctx, teamID)
}

func (s *Service) SetStatus(ctx context.Context, id, callerID string, status Status) error {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	role, err := s.roleOf(ctx, m.TeamID, callerID)
	if err != nil {
		return err
	}
	if m.CreatedBy != callerID && role != membership.RoleAdmin {
		return ErrForbidden
	}
	return s.repo.SetStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	role, err := s.roleOf(ctx, m.TeamID, callerID)
	if err != nil {
		return err
	}
	if m.CreatedBy != callerID && role != membership.RoleAdmin {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// PurgeTeam removes every meeting owned by the team. Called by the team
// coordinator during team deletion, after its own authorization check.
func (s *Service) PurgeTeam(ctx context.Context, teamID string) (int64, error) {
	return s.repo.DeleteByTeam(ctx, teamID)
}
