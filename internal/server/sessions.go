package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"discovery/internal/chat"
	"discovery/internal/discovery"
)

// userState is everything the API keeps for one browser session.
type userState struct {
	discovery    *discovery.Session
	conversation *chat.Conversation
	lastUsed     time.Time
}

type sessionStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*userState
	now   func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{items: make(map[uuid.UUID]*userState), now: time.Now}
}

func (s *sessionStore) add(st *userState) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	st.lastUsed = s.now()
	s.items[id] = st
	return id
}

func (s *sessionStore) get(id uuid.UUID) (*userState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.items[id]
	if ok {
		st.lastUsed = s.now()
	}
	return st, ok
}

func (s *sessionStore) remove(id uuid.UUID) (*userState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.items[id]
	delete(s.items, id)
	return st, ok
}

// expire drops sessions idle for longer than ttl and returns them so the
// caller can close them outside the lock.
func (s *sessionStore) expire(ttl time.Duration) []*userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*userState
	cutoff := s.now().Add(-ttl)
	for id, st := range s.items {
		if st.lastUsed.Before(cutoff) {
			out = append(out, st)
			delete(s.items, id)
		}
	}
	return out
}

func (s *sessionStore) drain() []*userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*userState, 0, len(s.items))
	for id, st := range s.items {
		out = append(out, st)
		delete(s.items, id)
	}
	return out
}
