package users

import "context"

// Lookup is the narrow read-only capability the auth core consumes. The
// backing store may be remote, so both calls take a context.
type Lookup interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// Store extends Lookup with the mutations used by bootstrap code and tests.
type Store interface {
	Lookup
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}
