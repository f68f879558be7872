package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input beyond 72 bytes, so passwords are truncated explicitly
// before hashing. Two passwords that differ only past byte 72 produce the same
// hash. This matches the documented bcrypt limit and is intentional.
const maxPasswordBytes = 72

// User is the identity value handed to the auth core by the external user
// store. It is fetched on demand and never mutated here; Roles and
// Permissions are the store's view at lookup time.
type User struct {
	ID          string         `json:"id,omitempty"`
	Username    string         `json:"username,omitempty"`
	Email       string         `json:"email,omitempty"`
	IsActive    bool           `json:"is_active,omitempty"`
	IsVerified  bool           `json:"is_verified,omitempty"`
	Roles       []string       `json:"roles,omitempty"`
	Permissions []string       `json:"permissions,omitempty"` // direct grants, not role-derived
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	LastLogin   time.Time      `json:"last_login,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`

	PasswordHash string `json:"-"` // never serialized
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user carries the permission key as a
// direct grant. Role-derived permissions are resolved by rbac.Manager.
func (u *User) HasPermission(key string) bool {
	for _, p := range u.Permissions {
		if p == key {
			return true
		}
	}
	return false
}

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// Cost values outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword(truncatePassword(password), cost)
	return string(bytes), err
}

// CheckPasswordHash verifies a plaintext password against a bcrypt hash.
// Malformed hashes yield false rather than an error; the comparison itself is
// delegated to bcrypt.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password))
	return err == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
