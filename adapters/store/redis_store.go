package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/walletauth/core"
)

const (
	DefaultPrefix    = "walletauth:challenge:"
	DefaultRetention = time.Minute
)

// consumeChallengeLua deletes the challenge hash only if it still carries the expected id.
// KEYS[1] = challenge key
// ARGV[1] = expected challenge id
//
// Returns 1 when deleted, 0 otherwise.
var consumeChallengeLua = redis.NewScript(`
local id = redis.call('HGET', KEYS[1], 'id')
if id == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// RedisStore is a Redis implementation of the ChallengeStore interface.
// Each address owns one hash holding the challenge id and its JSON encoding.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithPrefix overrides the key prefix
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRetention sets how long an expired challenge is kept so it can still be
// reported as expired rather than missing
func WithRetention(retention time.Duration) RedisOption {
	return func(s *RedisStore) { s.retention = retention }
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		prefix:    DefaultPrefix,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put replaces the challenge for the address in a single transaction
func (s *RedisStore) Put(ctx context.Context, challenge *core.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	ttl := challenge.ExpiresAt.Sub(challenge.IssuedAt) + s.retention
	key := s.key(challenge.Address)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "id", challenge.ID, "data", data)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to store challenge: %v", core.ErrStorageUnavailable, err)
	}

	return nil
}

// Get retrieves the challenge for the address
func (s *RedisStore) Get(ctx context.Context, address string) (*core.Challenge, error) {
	data, err := s.client.HGet(ctx, s.key(address), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("%w: failed to load challenge: %v", core.ErrStorageUnavailable, err)
	}

	var challenge core.Challenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		// An unreadable record cannot be verified against, drop it
		if err := s.client.Del(ctx, s.key(address)).Err(); err != nil {
			return nil, fmt.Errorf("%w: failed to drop corrupt challenge: %v", core.ErrStorageUnavailable, err)
		}
		return nil, core.ErrChallengeNotFound
	}

	return &challenge, nil
}

// Delete removes the challenge for the address
func (s *RedisStore) Delete(ctx context.Context, address string) error {
	if err := s.client.Del(ctx, s.key(address)).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete challenge: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// Consume atomically deletes the challenge if it still has challengeID
func (s *RedisStore) Consume(ctx context.Context, address, challengeID string) (bool, error) {
	deleted, err := consumeChallengeLua.Run(ctx, s.client, []string{s.key(address)}, challengeID).Int()
	if err != nil {
		return false, fmt.Errorf("%w: failed to consume challenge: %v", core.ErrStorageUnavailable, err)
	}
	return deleted == 1, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisStore) key(address string) string {
	return s.prefix + address
}
