package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertFromClaims(t *testing.T) {
	svc := NewService(NewMemoryUserRepository())
	ctx := context.Background()

	u, err := svc.UpsertFromClaims(ctx, map[string]interface{}{
		"sub":   "auth0|123",
		"email": "alice@example.com",
		"name":  "Alice",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "auth0|123", u.Sub)
	assert.Equal(t, "Alice", u.Name)
	created := u.CreatedAt

	// a second login updates the profile but keeps the creation time
	u, err = svc.UpsertFromClaims(ctx, map[string]interface{}{
		"sub":  "auth0|123",
		"name": "Alice B.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", u.Name)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUpsertFromClaimsWithoutSub(t *testing.T) {
	svc := NewService(NewMemoryUserRepository())
	u, err := svc.UpsertFromClaims(context.Background(), map[string]interface{}{"email": "x@example.com"})
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestDisplayName(t *testing.T) {
	svc := NewService(NewMemoryUserRepository())
	ctx := context.Background()

	_, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"sub": "auth0|123", "name": "Alice"})
	require.NoError(t, err)

	name, err := svc.DisplayName(ctx, "auth0|123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	// unknown subjects resolve to an empty name, not an error
	name, err = svc.DisplayName(ctx, "auth0|unknown")
	require.NoError(t, err)
	assert.Empty(t, name)
}
