package sessions_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-core/sessions"
	"github.com/jrsteele09/go-auth-core/users"
)

type sessionFixture struct {
	repo    *sessions.InMemoryRepo
	manager *sessions.Manager
	now     time.Time
}

func setupSessionFixture(t *testing.T, options ...sessions.ManagerOption) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		repo: sessions.NewInMemoryRepo(),
		now:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	options = append(options, sessions.WithNowFunc(func() time.Time { return f.now }))
	f.manager = sessions.NewManager(f.repo, options...)
	return f
}

func (f *sessionFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func testUser() *users.User {
	return &users.User{ID: "u1", Username: "bob", IsActive: true}
}

func TestCreateSessionDefaults(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser(),
		sessions.WithIPAddress("10.0.0.1"),
		sessions.WithUserAgent("test-agent"),
	)
	require.NoError(t, err)

	require.Equal(t, "u1", session.UserID)
	require.Equal(t, "10.0.0.1", session.IPAddress)
	require.Equal(t, "test-agent", session.UserAgent)
	require.Equal(t, f.now, session.CreatedAt)
	require.Equal(t, f.now.Add(24*time.Hour), session.ExpiresAt)
	// 32 bytes of entropy, URL-safe base64 without padding.
	require.Len(t, session.ID, 43)
}

func TestCreateSessionDistinctIDs(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	seen := make(map[string]struct{})
	for i := 0; i < 32; i++ {
		session, err := f.manager.CreateSession(ctx, testUser())
		require.NoError(t, err)
		seen[session.ID] = struct{}{}
	}
	require.Len(t, seen, 32)
}

func TestCreateSessionRequiresUser(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	_, err := f.manager.CreateSession(ctx, nil)
	require.Error(t, err)
}

func TestSessionExpiryEvictsLazily(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(24*time.Hour))
	require.NoError(t, err)
	require.True(t, f.manager.ValidateSession(ctx, session.ID))

	f.advance(24*time.Hour + time.Second)

	got, err := f.manager.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	// The lazy read deleted the record from the store itself.
	_, err = f.repo.Get(ctx, session.ID)
	require.ErrorIs(t, err, sessions.ErrNotFound)
	require.False(t, f.manager.ValidateSession(ctx, session.ID))
}

func TestExpiryIsMonotonic(t *testing.T) {
	f := setupSessionFixture(t)

	session := &sessions.SessionData{
		ID:        "s1",
		UserID:    "u1",
		CreatedAt: f.now,
		ExpiresAt: f.now.Add(time.Hour),
	}

	require.False(t, session.IsExpiredAt(f.now))
	f.advance(time.Hour + time.Second)
	require.True(t, session.IsExpiredAt(f.now))
	f.advance(48 * time.Hour)
	require.True(t, session.IsExpiredAt(f.now))
}

func TestRefreshSessionSlidesWindow(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(time.Hour))
	require.NoError(t, err)
	originalExpiry := session.ExpiresAt

	f.advance(30 * time.Minute)
	require.True(t, f.manager.RefreshSession(ctx, session.ID, time.Hour))

	refreshed, err := f.manager.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, originalExpiry.Add(time.Hour), refreshed.ExpiresAt)
	require.Equal(t, f.now, refreshed.LastActivity)
}

func TestRefreshSessionDefaultDuration(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t, sessions.WithDefaultDuration(2*time.Hour))

	session, err := f.manager.CreateSession(ctx, testUser())
	require.NoError(t, err)
	require.Equal(t, f.now.Add(2*time.Hour), session.ExpiresAt)

	require.True(t, f.manager.RefreshSession(ctx, session.ID, 0))

	refreshed, err := f.manager.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ExpiresAt.Add(2*time.Hour), refreshed.ExpiresAt)
}

func TestRefreshCannotResurrectExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(time.Hour))
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	require.False(t, f.manager.RefreshSession(ctx, session.ID, time.Hour))
	require.False(t, f.manager.RefreshSession(ctx, "missing", time.Hour))
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser())
	require.NoError(t, err)

	require.True(t, f.manager.RevokeSession(ctx, session.ID))
	require.False(t, f.manager.RevokeSession(ctx, session.ID))
	require.False(t, f.manager.ValidateSession(ctx, session.ID))
}

func TestRevokeUserSessions(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.manager.CreateSession(ctx, testUser())
		require.NoError(t, err)
	}
	other, err := f.manager.CreateSession(ctx, &users.User{ID: "u2", Username: "alice"})
	require.NoError(t, err)

	removed, err := f.manager.RevokeUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	require.True(t, f.manager.ValidateSession(ctx, other.ID))

	count, err := f.manager.UserSessionCount(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCleanupExpiredSessions(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	_, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(time.Hour))
	require.NoError(t, err)
	keep, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(48*time.Hour))
	require.NoError(t, err)

	f.advance(2 * time.Hour)

	removed, err := f.manager.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	require.True(t, f.manager.ValidateSession(ctx, keep.ID))
}

func TestGetUserSessionsFiltersExpired(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	_, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(time.Hour))
	require.NoError(t, err)
	live, err := f.manager.CreateSession(ctx, testUser(), sessions.WithDuration(48*time.Hour))
	require.NoError(t, err)

	f.advance(2 * time.Hour)

	active, err := f.manager.GetUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, live.ID, active[0].ID)

	total, err := f.manager.SessionCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestSessionExtraData(t *testing.T) {
	ctx := context.Background()
	f := setupSessionFixture(t)

	session, err := f.manager.CreateSession(ctx, testUser(), sessions.WithExtra("theme", "dark"))
	require.NoError(t, err)

	got, err := f.manager.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, "dark", got.Extra["theme"])
}

type flakyDeleteRepo struct {
	sessions.Repo
	deleteErr error
}

func (r *flakyDeleteRepo) Delete(ctx context.Context, sessionID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Repo.Delete(ctx, sessionID)
}

// A missing session and a failing store both revoke as false, but only the
// store failure is logged.
func TestRevokeSessionDistinguishesMissingFromStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := &flakyDeleteRepo{Repo: sessions.NewInMemoryRepo()}

	var logged bytes.Buffer
	manager := sessions.NewManager(repo, sessions.WithManagerLogger(zerolog.New(&logged)))

	session, err := manager.CreateSession(ctx, testUser())
	require.NoError(t, err)

	require.False(t, manager.RevokeSession(ctx, "missing"))
	require.Empty(t, logged.String())

	repo.deleteErr = errors.New("connection reset")
	require.False(t, manager.RevokeSession(ctx, session.ID))
	require.Contains(t, logged.String(), "session delete failed")

	repo.deleteErr = nil
	require.True(t, manager.RevokeSession(ctx, session.ID))
}
