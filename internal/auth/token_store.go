package auth

import (
	"context"
	"time"

	"businessconnect_backend/internal/cache"
)

const blacklistPrefix = "blacklist:access_token:"

// TokenStore keeps revoked access-token ids until they expire.
// Without redis nothing is blacklisted and tokens live until expiry.
type TokenStore struct {
	cache *cache.Client
}

func NewTokenStore(c *cache.Client) *TokenStore {
	return &TokenStore{cache: c}
}

func (s *TokenStore) BlacklistAccessToken(ctx context.Context, jti string, ttl time.Duration) {
	if jti == "" || ttl <= 0 {
		return
	}
	_ = s.cache.Set(ctx, blacklistPrefix+jti, []byte("1"), ttl)
}

func (s *TokenStore) IsAccessTokenBlacklisted(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	val, _ := s.cache.Get(ctx, blacklistPrefix+jti)
	return val != nil
}
