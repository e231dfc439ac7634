package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store tracks which session ids are alive
type Store interface {
	// Register records a new session that stays alive for ttl
	Register(ctx context.Context, id string, ttl time.Duration) error
	// Touch extends a live session by ttl and reports false if it has expired
	Touch(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// MemoryStore keeps session expiries in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) Register(ctx context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expiresAt, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(s.sessions, id)
		return false, nil
	}
	s.sessions[id] = now.Add(ttl)
	return true, nil
}

// Prune drops expired sessions and returns how many were removed
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, expiresAt := range s.sessions {
		if !now.Before(expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RedisStore keeps sessions as expiring Redis keys so several API
// processes agree on which sessions are alive
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, id)
}

func (s *RedisStore) Register(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(id), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	return nil
}

func (s *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, s.key(id), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to refresh session: %w", err)
	}
	return ok, nil
}
