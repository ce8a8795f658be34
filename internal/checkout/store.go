package checkout

import (
	"context"
	"sync"
	"time"
)

// Store keeps live sessions in memory. Sessions are deliberately not
// persisted: a page reload re-enters checkout with a fresh item list.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	return s, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// RunJanitor evicts sessions idle longer than the TTL. Abandoned browsers
// never call Abandon, so something has to reap the leftovers.
func (st *Store) RunJanitor(ctx context.Context) {
	if st.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(st.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.evictExpired(time.Now())
		}
	}
}

// evictExpired never holds the store lock and a session lock at the same
// time; Abandon acquires them in the opposite order.
func (st *Store) evictExpired(now time.Time) {
	st.mu.RLock()
	candidates := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		candidates = append(candidates, s)
	}
	st.mu.RUnlock()

	var expired []string
	for _, s := range candidates {
		s.mu.Lock()
		if now.Sub(s.UpdatedAt) > st.ttl {
			expired = append(expired, s.ID)
		}
		s.mu.Unlock()
	}

	if len(expired) == 0 {
		return
	}
	st.mu.Lock()
	for _, id := range expired {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
}
