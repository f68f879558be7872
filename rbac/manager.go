package rbac

import (
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-core/users"
)

// Manager stores roles, permissions and their assignments in five
// mutex-guarded maps. A user's effective permission set is the union of
// direct grants and the permission sets of every role the user holds, and it
// is recomputed on every check: assignments can change between calls, so any
// caching here would be a staleness hole.
type Manager struct {
	roles           map[string]Role                // role name -> role
	permissions     map[string]Permission          // permission key -> permission
	userRoles       map[string]map[string]struct{} // user ID -> role names
	userPermissions map[string]map[string]struct{} // user ID -> direct permission keys
	rolePermissions map[string]map[string]struct{} // role name -> permission keys
	nowFunc         func() time.Time
	mu              sync.RWMutex
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(options ...ManagerOption) *Manager {
	m := &Manager{
		roles:           make(map[string]Role),
		permissions:     make(map[string]Permission),
		userRoles:       make(map[string]map[string]struct{}),
		userPermissions: make(map[string]map[string]struct{}),
		rolePermissions: make(map[string]map[string]struct{}),
		nowFunc:         time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// CreateRole registers a role. Returns false on a duplicate name so that
// bootstrap code can run repeatedly without error handling.
func (m *Manager) CreateRole(role Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.roles[role.Name]; exists {
		return false
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = m.nowFunc()
	}
	m.roles[role.Name] = role
	m.rolePermissions[role.Name] = make(map[string]struct{})
	return true
}

// CreatePermission registers a permission under its derived key. Returns
// false on a duplicate key.
func (m *Manager) CreatePermission(permission Permission) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := permission.Key()
	if _, exists := m.permissions[key]; exists {
		return false
	}
	m.permissions[key] = permission
	return true
}

// AssignRole grants a role to a user. Returns false if the role does not
// exist.
func (m *Manager) AssignRole(userID, roleName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.roles[roleName]; !exists {
		return false
	}
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[string]struct{})
	}
	m.userRoles[userID][roleName] = struct{}{}
	return true
}

// RevokeRole removes a role from a user. Returns false if the user does not
// currently hold it.
func (m *Manager) RevokeRole(userID, roleName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	held, ok := m.userRoles[userID]
	if !ok {
		return false
	}
	if _, ok := held[roleName]; !ok {
		return false
	}
	delete(held, roleName)
	return true
}

// AssignPermissionToRole associates an existing permission with an existing
// role.
func (m *Manager) AssignPermissionToRole(roleName, permissionKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.roles[roleName]; !exists {
		return false
	}
	if _, exists := m.permissions[permissionKey]; !exists {
		return false
	}
	if m.rolePermissions[roleName] == nil {
		m.rolePermissions[roleName] = make(map[string]struct{})
	}
	m.rolePermissions[roleName][permissionKey] = struct{}{}
	return true
}

// RevokePermissionFromRole removes a permission from a role's set.
func (m *Manager) RevokePermissionFromRole(roleName, permissionKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	perms, ok := m.rolePermissions[roleName]
	if !ok {
		return false
	}
	delete(perms, permissionKey)
	return true
}

// AssignPermissionToUser grants an existing permission directly to a user.
func (m *Manager) AssignPermissionToUser(userID, permissionKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.permissions[permissionKey]; !exists {
		return false
	}
	if m.userPermissions[userID] == nil {
		m.userPermissions[userID] = make(map[string]struct{})
	}
	m.userPermissions[userID][permissionKey] = struct{}{}
	return true
}

// RevokePermissionFromUser removes a direct permission grant from a user.
func (m *Manager) RevokePermissionFromUser(userID, permissionKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	perms, ok := m.userPermissions[userID]
	if !ok {
		return false
	}
	delete(perms, permissionKey)
	return true
}

// CheckPermission reports whether the user may perform action on resource:
// true iff the derived key is a direct grant or belongs to any role the user
// holds.
func (m *Manager) CheckPermission(user *users.User, resource, action string) bool {
	if user == nil {
		return false
	}
	key := PermissionKey(resource, action)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.userPermissions[user.ID][key]; ok {
		return true
	}
	for roleName := range m.userRoles[user.ID] {
		if _, ok := m.rolePermissions[roleName][key]; ok {
			return true
		}
	}
	return false
}

// CheckRole reports whether the user currently holds the named role.
func (m *Manager) CheckRole(user *users.User, roleName string) bool {
	if user == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.userRoles[user.ID][roleName]
	return ok
}

// GetUserRoles returns the roles the user holds, sorted by name.
func (m *Manager) GetUserRoles(userID string) []Role {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roles := make([]Role, 0, len(m.userRoles[userID]))
	for name := range m.userRoles[userID] {
		if role, ok := m.roles[name]; ok {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles
}

// GetUserPermissions returns the deduplicated union of the user's direct
// grants and all role permissions, sorted by key.
func (m *Manager) GetUserPermissions(userID string) []Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	permissions := make([]Permission, 0)

	collect := func(keys map[string]struct{}) {
		for key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			if perm, ok := m.permissions[key]; ok {
				permissions = append(permissions, perm)
				seen[key] = struct{}{}
			}
		}
	}

	collect(m.userPermissions[userID])
	for roleName := range m.userRoles[userID] {
		collect(m.rolePermissions[roleName])
	}

	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Key() < permissions[j].Key() })
	return permissions
}

// GetAllRoles returns every registered role, sorted by name.
func (m *Manager) GetAllRoles() []Role {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roles := make([]Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles
}

// GetAllPermissions returns every registered permission, sorted by key.
func (m *Manager) GetAllPermissions() []Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	permissions := make([]Permission, 0, len(m.permissions))
	for _, perm := range m.permissions {
		permissions = append(permissions, perm)
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i].Key() < permissions[j].Key() })
	return permissions
}

// DeleteRole removes a role, stripping it from every user and dropping its
// permission set. The cascade prevents a later role with the same name from
// silently inheriting stale assignments.
func (m *Manager) DeleteRole(roleName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.roles[roleName]; !exists {
		return false
	}
	for _, held := range m.userRoles {
		delete(held, roleName)
	}
	delete(m.roles, roleName)
	delete(m.rolePermissions, roleName)
	return true
}

// DeletePermission removes a permission, stripping it from every role's and
// every user's set.
func (m *Manager) DeletePermission(permissionKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.permissions[permissionKey]; !exists {
		return false
	}
	for _, perms := range m.rolePermissions {
		delete(perms, permissionKey)
	}
	for _, perms := range m.userPermissions {
		delete(perms, permissionKey)
	}
	delete(m.permissions, permissionKey)
	return true
}
