package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-auth-core/users"
)

const (
	defaultSessionDuration = 24 * time.Hour
	sessionIDBytes         = 32
)

// Manager issues and tracks opaque server-side sessions with sliding
// expiration. Expired sessions are evicted lazily when read; callers that
// want proactive eviction use CleanupExpiredSessions.
type Manager struct {
	repo            Repo
	defaultDuration time.Duration
	nowFunc         func() time.Time
	log             zerolog.Logger
}

type ManagerOption func(*Manager)

func WithDefaultDuration(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.defaultDuration = d
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithManagerLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

func NewManager(repo Repo, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:            repo,
		defaultDuration: defaultSessionDuration,
		nowFunc:         time.Now,
		log:             zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.repo == nil {
		m.repo = NewInMemoryRepo()
	}
	return m
}

// CreateOption customises a single session at creation time.
type CreateOption func(*SessionData, *time.Duration)

func WithIPAddress(ip string) CreateOption {
	return func(s *SessionData, _ *time.Duration) {
		s.IPAddress = ip
	}
}

func WithUserAgent(ua string) CreateOption {
	return func(s *SessionData, _ *time.Duration) {
		s.UserAgent = ua
	}
}

func WithDuration(d time.Duration) CreateOption {
	return func(_ *SessionData, duration *time.Duration) {
		*duration = d
	}
}

func WithExtra(key string, value any) CreateOption {
	return func(s *SessionData, _ *time.Duration) {
		if s.Extra == nil {
			s.Extra = make(map[string]any)
		}
		s.Extra[key] = value
	}
}

// CreateSession opens a new session for the user. The session ID is 32 bytes
// of crypto/rand entropy, URL-safe encoded, opaque to clients.
func (m *Manager) CreateSession(ctx context.Context, user *users.User, options ...CreateOption) (*SessionData, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("Manager.CreateSession user is required")
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, errors.Wrap(err, "Manager.CreateSession id generation")
	}

	now := m.nowFunc()
	duration := m.defaultDuration
	session := &SessionData{
		ID:           id,
		UserID:       user.ID,
		CreatedAt:    now,
		LastActivity: now,
	}
	for _, opt := range options {
		opt(session, &duration)
	}
	session.ExpiresAt = now.Add(duration)

	if err := m.repo.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "Manager.CreateSession upsert")
	}
	return session, nil
}

// GetSession returns the session, or nil when it is absent or expired. An
// expired record is deleted from the store as a side effect of the read.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	session, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "Manager.GetSession")
	}

	if session.IsExpiredAt(m.nowFunc()) {
		_ = m.repo.Delete(ctx, sessionID)
		return nil, nil
	}
	return session, nil
}

// ValidateSession reports whether the session exists and is unexpired.
func (m *Manager) ValidateSession(ctx context.Context, sessionID string) bool {
	session, err := m.GetSession(ctx, sessionID)
	return err == nil && session != nil
}

// RefreshSession slides the session window: last activity moves to now and
// the expiry extends by duration (the manager default when zero). An absent
// or already-expired session cannot be resurrected; that returns false.
func (m *Manager) RefreshSession(ctx context.Context, sessionID string, duration time.Duration) bool {
	session, err := m.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return false
	}

	if duration <= 0 {
		duration = m.defaultDuration
	}
	session.UpdateActivity(m.nowFunc())
	session.ExtendExpiration(duration)

	return m.repo.Upsert(ctx, session) == nil
}

// RevokeSession deletes the session immediately. Returns false when there was
// nothing to revoke or the store failed; a missing session is silent, a store
// failure is logged.
func (m *Manager) RevokeSession(ctx context.Context, sessionID string) bool {
	err := m.repo.Delete(ctx, sessionID)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		m.log.Warn().Str("session_id", sessionID).Err(err).Msg("session delete failed")
	}
	return false
}

// RevokeUserSessions deletes every session belonging to the user and returns
// how many were removed. Best-effort with respect to concurrent creation for
// the same user: a session created mid-sweep may or may not be caught.
func (m *Manager) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	removed, err := m.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return removed, errors.Wrap(err, "Manager.RevokeUserSessions")
	}
	return removed, nil
}

// CleanupExpiredSessions proactively evicts every expired session and returns
// the count removed.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) (int, error) {
	all, err := m.repo.All(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "Manager.CleanupExpiredSessions")
	}

	now := m.nowFunc()
	removed := 0
	for _, session := range all {
		if session.IsExpiredAt(now) {
			if m.repo.Delete(ctx, session.ID) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// GetUserSessions returns the user's currently-active sessions.
func (m *Manager) GetUserSessions(ctx context.Context, userID string) ([]*SessionData, error) {
	all, err := m.GetAllSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]*SessionData, 0)
	for _, session := range all {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// GetAllSessions returns every currently-active session.
func (m *Manager) GetAllSessions(ctx context.Context) ([]*SessionData, error) {
	all, err := m.repo.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.GetAllSessions")
	}

	now := m.nowFunc()
	active := make([]*SessionData, 0, len(all))
	for _, session := range all {
		if !session.IsExpiredAt(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

// SessionCount returns the number of active sessions.
func (m *Manager) SessionCount(ctx context.Context) (int, error) {
	active, err := m.GetAllSessions(ctx)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

// UserSessionCount returns the number of active sessions for the user.
func (m *Manager) UserSessionCount(ctx context.Context, userID string) (int, error) {
	sessions, err := m.GetUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func generateSessionID() (string, error) {
	bytes := make([]byte, sessionIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
