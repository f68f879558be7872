package sessions

import (
	"context"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a mutex-guarded map store, suitable for reference and test
// use. Records are copied in and out so callers never share memory with the
// store.
type InMemoryRepo struct {
	sessions map[string]*SessionData
	mu       sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*SessionData),
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, session *SessionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*SessionData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(session), nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *InMemoryRepo) DeleteByUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *InMemoryRepo) All(_ context.Context) ([]*SessionData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*SessionData, 0, len(r.sessions))
	for _, session := range r.sessions {
		all = append(all, copySession(session))
	}
	return all, nil
}

func copySession(s *SessionData) *SessionData {
	c := *s
	if s.Extra != nil {
		c.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
