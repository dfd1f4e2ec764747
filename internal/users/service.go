package users

import (
	"context"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	u := &User{
		Sub:   sub,
		Email: email,
		Name:  name,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// DisplayName resolves a user's display name for the collaborator listing.
// Unknown users resolve to an empty name rather than an error.
func (s *Service) DisplayName(ctx context.Context, sub string) (string, error) {
	u, err := s.GetBySub(ctx, sub)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", nil
	}
	return u.Name, nil
}
