package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RevocationList invalidates tokens before they expire: single tokens on
// logout, and every token of a user when the account is deactivated.
type RevocationList interface {
	// Revoke marks a token id as revoked for ttl (the token's remaining lifetime)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether a token id was revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeUser invalidates every token issued to the user up to now
	RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error

	// IsUserRevoked reports whether a token issued at issuedAt predates the user's revocation
	IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error)
}

// CheckRevoked returns ErrTokenRevoked when the claims were revoked by either mechanism
func CheckRevoked(ctx context.Context, list RevocationList, claims *Claims) error {
	if list == nil {
		return nil
	}
	revoked, err := list.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ErrInvalidClaims
	}
	revoked, err = list.IsUserRevoked(ctx, userID, claims.IssuedAtTime())
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

// RedisRevocationList implements RevocationList with expiring Redis keys
type RedisRevocationList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRevocationList creates a revocation list on an existing Redis client
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client, keyPrefix: "token:revoked:"}
}

// Revoke stores the token id until the token would have expired anyway
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.keyPrefix+"jti:"+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks for the token id key
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keyPrefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the revocation time as unix seconds
func (l *RedisRevocationList) RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.keyPrefix+"user:"+userID.String(), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked compares the token's issue time with the stored revocation time
func (l *RedisRevocationList) IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	raw, err := l.client.Get(ctx, l.keyPrefix+"user:"+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)

// InMemoryRevocationList is a single-process RevocationList
type InMemoryRevocationList struct {
	mu    sync.Mutex
	jtis  map[string]time.Time // jti -> expiry
	users map[uuid.UUID]int64  // user -> revoked at (unix seconds)
}

// NewInMemoryRevocationList creates an empty list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		jtis:  make(map[string]time.Time),
		users: make(map[uuid.UUID]int64),
	}
}

// Revoke records the token id until ttl elapses
func (l *InMemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jtis[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports an unexpired entry, pruning expired ones
func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiry, ok := l.jtis[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(l.jtis, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser records the revocation time
func (l *InMemoryRevocationList) RevokeUser(_ context.Context, userID uuid.UUID, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[userID] = time.Now().Unix()
	return nil
}

// IsUserRevoked compares issue and revocation times at second precision, as JWT does
func (l *InMemoryRevocationList) IsUserRevoked(_ context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	revokedAt, ok := l.users[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ RevocationList = (*InMemoryRevocationList)(nil)
