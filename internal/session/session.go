// Package session resolves opaque session tokens to authenticated
// identities. Sessions are written by the external identity provider; this
// service only reads and expires them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"device-lending-backend/config"
)

// ErrNotFound means the token does not map to a live session.
var ErrNotFound = errors.New("session not found")

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Staff reports whether the session carries the staff/admin claim.
func (s *Session) Staff() bool {
	return s.Role == "staff" || s.Role == "admin"
}

// Store looks up sessions by token.
type Store interface {
	Get(ctx context.Context, token string) (*Session, error)
	Put(ctx context.Context, token string, sess *Session) error
	Delete(ctx context.Context, token string) error
}

func key(token string) string { return "lend:sess:" + token }

// RedisStore is the production Store backed by the identity provider's
// session database.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to redis using the given configuration.
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{
		rdb: rdb,
		ttl: time.Duration(cfg.SessionTTLMinutes) * time.Minute,
	}
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	b, err := s.rdb.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	// Sliding expiry: activity keeps the session alive.
	_ = s.rdb.Expire(ctx, key(token), s.ttl).Err()
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, token string, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(token), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, key(token)).Err()
}

// MemoryStore is an in-process Store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Put(_ context.Context, token string, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = *sess
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
