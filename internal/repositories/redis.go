package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openreel/gateway/internal/auth"
)

const (
	challengeKeyPrefix = "auth:challenge:"
	revokedKeyPrefix   = "auth:revoked:"
)

// NewRedisClient initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local and container config paths simple.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisChallengeStore keeps sign-in challenges in Redis with a TTL so
// nonces survive a gateway restart but still expire on their own.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore creates a challenge store over the given client.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

// Put stores the challenge until it expires.
func (s *RedisChallengeStore) Put(ctx context.Context, challenge auth.Challenge) error {
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, challengeKeyPrefix+challenge.Nonce, raw, ttl).Err()
}

// Take atomically removes and returns the challenge for nonce.
func (s *RedisChallengeStore) Take(ctx context.Context, nonce string) (auth.Challenge, error) {
	raw, err := s.client.GetDel(ctx, challengeKeyPrefix+nonce).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return auth.Challenge{}, auth.ErrChallengeNotFound
		}
		return auth.Challenge{}, err
	}

	var challenge auth.Challenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return auth.Challenge{}, err
	}
	return challenge, nil
}

// RedisRevocationStore stores revoked-session flags with TTL.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a revocation store over the given client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Revoke flags the session for ttl.
func (s *RedisRevocationStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return s.client.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err()
}

// IsRevoked reports whether the session carries an unexpired flag.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ auth.ChallengeStore = (*RedisChallengeStore)(nil)
var _ auth.RevocationStore = (*RedisRevocationStore)(nil)
