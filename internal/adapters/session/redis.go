package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/bpbot/internal/ports/secondary"
)

// RedisStore keeps sessions as JSON values with a TTL, so several bot
// processes can share form progress and abandoned forms expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(identityID int64) string {
	return s.prefix + strconv.FormatInt(identityID, 10)
}

// Load returns the stored session, or nil on a miss.
func (s *RedisStore) Load(ctx context.Context, identityID int64) (*secondary.FormSessionRecord, error) {
	val, err := s.client.Get(ctx, s.key(identityID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record secondary.FormSessionRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &record, nil
}

// Save replaces the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, record *secondary.FormSessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.IdentityID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session key.
func (s *RedisStore) Clear(ctx context.Context, identityID int64) error {
	if err := s.client.Del(ctx, s.key(identityID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ secondary.SessionStore = (*RedisStore)(nil)
