// Package memory holds in-process stand-ins for the Redis-backed stores.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore keeps JSON blobs in a map with the same sliding-TTL
// semantics as the Redis store.
type SessionStore struct {
	mu   sync.Mutex
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{data: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (s *SessionStore) Get(_ context.Context, key string, dst interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || (s.ttl > 0 && s.now().After(e.expiresAt)) {
		delete(s.data, key)
		return domain.ErrSessionNotFound
	}
	e.expiresAt = s.now().Add(s.ttl)
	s.data[key] = e
	return json.Unmarshal(e.data, dst)
}

func (s *SessionStore) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = entry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Len reports how many keys are stored, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
