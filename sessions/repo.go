package sessions

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound indicates the session ID has no record in the store.
var ErrNotFound = errors.New("session not found")

// Repo is the storage contract behind the Manager. The manager owns all
// expiry and sliding-window logic; a repo only persists records, so a durable
// backing store can be substituted without touching that logic.
type Repo interface {
	Upsert(ctx context.Context, session *SessionData) error
	Get(ctx context.Context, sessionID string) (*SessionData, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
	All(ctx context.Context) ([]*SessionData, error)
}
