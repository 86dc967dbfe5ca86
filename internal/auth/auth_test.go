package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/cache"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.Error(t, ValidatePassword("12345"))
	assert.NoError(t, ValidatePassword("123456"))
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)

	token, claims, err := svc.GenerateAccessToken("user-1", "recruteur")
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "recruteur", parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	token, _, err := svc.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewJWTService("other-secret", time.Minute).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := &Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(unsigned)
		assert.Error(t, err)
	})
}

func TestTokens(t *testing.T) {
	tok, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestCanModify(t *testing.T) {
	assert.True(t, CanModify("u1", "u1", "user"))
	assert.False(t, CanModify("u1", "u2", "recruteur"))
	assert.True(t, CanModify("u1", "u2", "admin"))
	assert.False(t, CanModify("", "", "user"))
}

func TestTokenStore_WithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	store.BlacklistAccessToken(context.Background(), "jti", time.Minute)
	assert.False(t, store.IsAccessTokenBlacklisted(context.Background(), "jti"))
}

func TestTokenStore_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewTokenStore(cache.New(mr.Addr(), "", 0))
	ctx := context.Background()

	assert.False(t, store.IsAccessTokenBlacklisted(ctx, "jti"))
	store.BlacklistAccessToken(ctx, "jti", time.Minute)
	assert.True(t, store.IsAccessTokenBlacklisted(ctx, "jti"))
	assert.False(t, store.IsAccessTokenBlacklisted(ctx, "other"))

	store.BlacklistAccessToken(ctx, "expired", 0)
	assert.False(t, store.IsAccessTokenBlacklisted(ctx, "expired"), "already expired tokens are not stored")

	mr.FastForward(2 * time.Minute)
	assert.False(t, store.IsAccessTokenBlacklisted(ctx, "jti"), "entries vanish with the token")
}
