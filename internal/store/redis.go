package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
)

const (
	noticeTTL = 10 * time.Minute
	slotTTL   = 24 * time.Hour
)

// RedisStore handles Redis operations for sessions, flash notices and
// retained view slots.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client returns the underlying Redis client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// sessionKey returns the key for a session record.
func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id)
}

// noticesKey returns the key for a session's flash notice list.
func noticesKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:notices", sessionID)
}

// slotDataKey returns the key holding a view slot's committed value.
func slotDataKey(key string) string {
	return fmt.Sprintf("view:%s:data", key)
}

// slotGenKey returns the key holding a view slot's generation counter.
func slotGenKey(key string) string {
	return fmt.Sprintf("view:%s:gen", key)
}

// CreateSession stores a session until its expiry.
func (s *RedisStore) CreateSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, ttl).Err()
}

// GetSession retrieves a live session, or nil if none exists.
func (s *RedisStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}
	return &session, nil
}

// DeleteSession removes a session and anything queued on it.
func (s *RedisStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, sessionKey(id), noticesKey(id)).Err()
}

// PushNotice queues a flash notice for the session's next page.
func (s *RedisStore) PushNotice(ctx context.Context, sessionID uuid.UUID, notice models.Notice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	key := noticesKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, noticeTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// PopNotices returns and clears the session's queued notices in order.
func (s *RedisStore) PopNotices(ctx context.Context, sessionID uuid.UUID) ([]models.Notice, error) {
	key := noticesKey(sessionID)
	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	results := rangeCmd.Val()
	notices := make([]models.Notice, 0, len(results))
	for _, data := range results {
		var n models.Notice
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// Begin starts a new generation for a view slot.
func (s *RedisStore) Begin(ctx context.Context, key string) (uint64, error) {
	genKey := slotGenKey(key)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, slotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Commit stores data for the slot only while gen is still its newest
// generation. The check and the write run under WATCH so a Begin from a
// concurrent request aborts the commit.
func (s *RedisStore) Commit(ctx context.Context, key string, gen uint64, data []byte) (bool, error) {
	genKey := slotGenKey(key)
	committed := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, slotDataKey(key), data, slotTTL)
			pipe.Expire(ctx, genKey, slotTTL)
			return nil
		})
		if err != nil {
			return err
		}
		committed = true
		return nil
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return committed, nil
}

// Last returns the slot's most recently committed value.
func (s *RedisStore) Last(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, slotDataKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
