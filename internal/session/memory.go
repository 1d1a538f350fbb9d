package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Used for local
// development and tests when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Issue(ctx context.Context, sess Session) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	sess.IssuedAt = now

	s.mu.Lock()
	s.sessions[token] = memoryEntry{sess: sess, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}
	sess := entry.sess
	return &sess, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
