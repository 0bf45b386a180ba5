package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes access before expiry. Logout revokes one token by
// its JTI; deactivating a user revokes every session issued up to that moment.
type TokenBlacklist interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeSessions rejects every token of userID issued at or before now.
	// ttl should cover the longest refresh token lifetime.
	RevokeSessions(ctx context.Context, userID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// KeyPrefix namespaces revocation entries in the shared Redis database
const KeyPrefix = "p2p:token:"

// RedisTokenBlacklist keeps revocations in Redis so every instance sees them.
// Entries expire with the tokens they revoke.
type RedisTokenBlacklist struct {
	client redis.UniversalClient
}

// NewRedisTokenBlacklist uses the shared Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func tokenKey(jti string) string     { return KeyPrefix + "jti:" + jti }
func sessionKey(userID string) string { return KeyPrefix + "user:" + userID }

func (b *RedisTokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, tokenKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, tokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) RevokeSessions(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, sessionKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return nil
}

// IsSessionRevoked compares whole seconds since JWT iat has second
// precision; a token issued in the revocation second is rejected.
func (b *RedisTokenBlacklist) IsSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, sessionKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check revoked sessions: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse session cutoff %q: %w", raw, err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist serves a single instance running without Redis.
// Expired token entries are dropped lazily on lookup.
type InMemoryTokenBlacklist struct {
	mu       sync.Mutex
	tokens   map[string]time.Time // jti -> entry expiry
	sessions map[string]time.Time // userID -> cutoff
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:   make(map[string]time.Time),
		sessions: make(map[string]time.Time),
	}
}

func (b *InMemoryTokenBlacklist) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.tokens[jti] = time.Now().Add(ttl)
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) RevokeSessions(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	b.sessions[userID] = time.Now()
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsSessionRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	cutoff, ok := b.sessions[userID]
	b.mu.Unlock()
	return ok && !issuedAt.After(cutoff), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
