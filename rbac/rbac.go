package rbac

import (
	"fmt"
	"time"
)

// Role is keyed by name. Permissions are never embedded here; the
// role-to-permission association lives in the Manager so assignments can
// change without touching role identity.
type Role struct {
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"is_system_role,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Permission is uniquely keyed by "<resource>:<action>". The key is always
// derived from the pair, never supplied independently.
type Permission struct {
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Key returns the derived "<resource>:<action>" identifier.
func (p Permission) Key() string {
	return PermissionKey(p.Resource, p.Action)
}

// PermissionKey builds the canonical permission identifier for a
// resource/action pair. Lowercase is conventional but not enforced.
func PermissionKey(resource, action string) string {
	return fmt.Sprintf("%s:%s", resource, action)
}
