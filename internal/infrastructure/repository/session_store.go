package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopify-oauth-layer/internal/domain"
	"shopify-oauth-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "oauth:state:"

// RedisSessionStore keeps OAuth sessions in Redis with a TTL
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(state string) string {
	return sessionKeyPrefix + state
}

func (s *RedisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ttl := s.ttl
	if !session.ExpiresAt.IsZero() {
		ttl = time.Until(session.ExpiresAt)
	}
	if ttl <= 0 {
		return fmt.Errorf("session for state %s already expired", session.State)
	}
	if err := s.client.Set(ctx, sessionKey(session.State), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Consume(ctx context.Context, state string) (*domain.Session, error) {
	data, err := s.client.GetDel(ctx, sessionKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// MemorySessionStore keeps OAuth sessions in process memory
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	now      func() time.Time
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Save(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.sessions[session.State] = *session
	return nil
}

func (s *MemorySessionStore) Consume(ctx context.Context, state string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[state]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.sessions, state)
	if session.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

// sweep drops expired sessions; callers hold mu
func (s *MemorySessionStore) sweep() {
	now := s.now()
	for state, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, state)
		}
	}
}
