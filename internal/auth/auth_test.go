package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/repository/sqldb"
	"github.com/example/velours/internal/repository/sqldb/sqldbtest"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "k", TokenTTL: time.Hour}
	tok, err := GenerateToken(cfg, 7, "jean")
	require.NoError(t, err)

	claims, err := ParseToken(cfg, tok)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims.UserID)
	require.Equal(t, "jean", claims.Username)

	_, err = ParseToken(&config.JWTConfig{Secret: "other"}, tok)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "k"}
	past := time.Now().Add(-time.Hour)
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseToken(cfg, tok)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseToken(cfg, "not-a-token")
	require.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", h)
	require.True(t, CheckPassword(h, "s3cret"))
	require.False(t, CheckPassword(h, "wrong"))
}

func TestShardRingStableSpread(t *testing.T) {
	shards := []string{"s1", "s2", "s3"}
	ring := NewShardRing(shards, 0)
	require.Equal(t, shards, ring.Shards())

	counts := map[string]int{}
	const keys = 3000
	for i := 0; i < keys; i++ {
		key := fmt.Sprintf("token-%d", i)
		shard := ring.Shard(key)
		require.Equal(t, shard, ring.Shard(key))
		counts[shard]++
	}
	require.Len(t, counts, 3)
	for shard, n := range counts {
		require.Greater(t, n, keys/6, "shard %s got %d keys", shard, n)
	}
}

func TestShardRingAddingShardMovesFewKeys(t *testing.T) {
	before := NewShardRing([]string{"s1", "s2", "s3"}, 0)
	after := NewShardRing([]string{"s1", "s2", "s3", "s4"}, 0)

	moved := 0
	const keys = 2000
	for i := 0; i < keys; i++ {
		key := fmt.Sprintf("token-%d", i)
		if before.Shard(key) != after.Shard(key) {
			require.Equal(t, "s4", after.Shard(key))
			moved++
		}
	}
	require.Greater(t, moved, 0)
	require.Less(t, moved, keys/2)
}

func TestShardRingDefaults(t *testing.T) {
	ring := NewShardRing(nil, 0)
	require.Equal(t, []string{"default"}, ring.Shards())
	require.Equal(t, "default", ring.Shard("x"))

	ring = NewShardRing([]string{"a", "", "a", "b"}, 8)
	require.Equal(t, []string{"a", "b"}, ring.Shards())
}

func TestTokenCacheKeyCarriesShard(t *testing.T) {
	ring := NewShardRing([]string{"s1", "s2"}, 0)
	cache := NewTokenCache(nil, ring, time.Minute)
	key := cache.cacheKey("some.jwt.token")
	require.Contains(t, key, "velours:jwt:"+ring.Shard("some.jwt.token")+":")
	require.NotContains(t, key, "some.jwt.token")
}

func TestGateResolveReadsFreshAdminFlag(t *testing.T) {
	db := sqldbtest.New(t)
	u := sqldbtest.CreateUser(t, db, "marie", false)
	gate := NewGate(&config.JWTConfig{Secret: "k", TokenTTL: time.Hour}, sqldb.NewUserRepository(db), NewTokenCache(nil, nil, 0))

	tok, err := gate.Issue(u)
	require.NoError(t, err)

	p, err := gate.Resolve(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, u.ID, p.UserID)
	require.False(t, p.IsAdmin)

	require.NoError(t, db.Model(u).Update("is_admin", true).Error)
	p, err = gate.Resolve(context.Background(), tok)
	require.NoError(t, err)
	require.True(t, p.IsAdmin)
}

func TestGateResolveRejects(t *testing.T) {
	db := sqldbtest.New(t)
	u := sqldbtest.CreateUser(t, db, "paul", false)
	gate := NewGate(&config.JWTConfig{Secret: "k", TokenTTL: time.Hour}, sqldb.NewUserRepository(db), nil)

	_, err := gate.Resolve(context.Background(), "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = gate.Resolve(context.Background(), "garbage")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	tok, err := gate.Issue(u)
	require.NoError(t, err)
	require.NoError(t, db.Delete(u).Error)
	_, err = gate.Resolve(context.Background(), tok)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
