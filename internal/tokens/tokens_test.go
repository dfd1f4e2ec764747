package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARBAZ1233678/CollabSpace/internal/config"
	"github.com/ARBAZ1233678/CollabSpace/internal/users"
)

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour}}
}

func TestGenerateAccessToken(t *testing.T) {
	cfg := testConfig()
	u := &users.User{Sub: "auth0|123", Name: "Alice", Email: "alice@example.com"}

	raw, err := GenerateAccessToken(cfg, u, time.Hour)
	require.NoError(t, err)

	parsed, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "auth0|123", claims["sub"])
	assert.Equal(t, "Alice", claims["name"])
	assert.Equal(t, "alice@example.com", claims["email"])
}

func TestBlacklistRoundtrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetBlacklistClient(client)
	t.Cleanup(func() {
		SetBlacklistClient(nil)
		client.Close()
	})
	ctx := context.Background()

	black, err := IsAccessTokenBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, black)

	require.NoError(t, BlacklistAccessToken(ctx, "tok-1", time.Minute))
	black, err = IsAccessTokenBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, black)

	// the blacklist entry expires with the token
	mr.FastForward(2 * time.Minute)
	black, err = IsAccessTokenBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, black)
}

func TestBlacklistWithoutRedisIsNoop(t *testing.T) {
	SetBlacklistClient(nil)
	ctx := context.Background()

	require.NoError(t, BlacklistAccessToken(ctx, "tok-1", time.Minute))
	black, err := IsAccessTokenBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, black)
}
