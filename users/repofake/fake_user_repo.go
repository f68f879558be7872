package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-core/users"
	"github.com/pkg/errors"
)

var _ users.Store = (*FakeUserStore)(nil)

// FakeUserStore is a mutex-guarded in-memory user store for tests and the
// demo binary. Values are copied on the way in and out so callers cannot
// mutate stored state.
type FakeUserStore struct {
	byID       map[string]*users.User
	byUsername map[string]string // username -> id
	lock       sync.RWMutex
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{
		byID:       make(map[string]*users.User),
		byUsername: make(map[string]string),
	}
}

func (s *FakeUserStore) Upsert(_ context.Context, user *users.User) error {
	if user == nil || user.ID == "" {
		return errors.New("user ID is required")
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	if existing, ok := s.byID[user.ID]; ok && existing.Username != user.Username {
		delete(s.byUsername, existing.Username)
	}
	u := copyUser(user)
	s.byID[u.ID] = u
	s.byUsername[u.Username] = u.ID
	return nil
}

func (s *FakeUserStore) Delete(_ context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return errors.New("not found")
	}
	delete(s.byUsername, user.Username)
	delete(s.byID, id)
	return nil
}

func (s *FakeUserStore) GetByUsername(_ context.Context, username string) (*users.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return copyUser(s.byID[id]), nil
}

func (s *FakeUserStore) GetByID(_ context.Context, id string) (*users.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return copyUser(user), nil
}

func (s *FakeUserStore) SetActive(_ context.Context, id string, active bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return errors.New("not found")
	}
	user.IsActive = active
	return nil
}

func copyUser(u *users.User) *users.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.Permissions = append([]string(nil), u.Permissions...)
	if u.Extra != nil {
		c.Extra = make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}
