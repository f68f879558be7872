package rbac_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jrsteele09/go-auth-core/rbac"
	"github.com/jrsteele09/go-auth-core/users"
	"github.com/stretchr/testify/require"
)

func testUser(id string) *users.User {
	return &users.User{ID: id, Username: "user-" + id, IsActive: true}
}

func TestCreateRoleDuplicate(t *testing.T) {
	m := rbac.NewManager()

	require.True(t, m.CreateRole(rbac.Role{Name: "editor"}))
	require.False(t, m.CreateRole(rbac.Role{Name: "editor"}))
}

func TestCreatePermissionDuplicate(t *testing.T) {
	m := rbac.NewManager()

	require.True(t, m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"}))
	require.False(t, m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"}))
}

func TestAssignRoleRequiresExistingRole(t *testing.T) {
	m := rbac.NewManager()

	require.False(t, m.AssignRole("u1", "ghost"))
	require.True(t, m.CreateRole(rbac.Role{Name: "editor"}))
	require.True(t, m.AssignRole("u1", "editor"))
}

func TestRevokeRoleNotHeld(t *testing.T) {
	m := rbac.NewManager()
	m.CreateRole(rbac.Role{Name: "editor"})

	require.False(t, m.RevokeRole("u1", "editor"))
	require.True(t, m.AssignRole("u1", "editor"))
	require.True(t, m.RevokeRole("u1", "editor"))
	require.False(t, m.RevokeRole("u1", "editor"))
}

func TestCheckPermissionThroughRole(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	require.True(t, m.CreateRole(rbac.Role{Name: "editor"}))
	require.True(t, m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"}))
	require.True(t, m.AssignPermissionToRole("editor", "posts:write"))
	require.True(t, m.AssignRole("u1", "editor"))

	require.True(t, m.CheckPermission(user, "posts", "write"))

	require.True(t, m.RevokeRole("u1", "editor"))
	require.False(t, m.CheckPermission(user, "posts", "write"))
}

func TestCheckPermissionUnionLaw(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "read"})
	m.AssignPermissionToRole("editor", "posts:write")
	m.AssignRole("u1", "editor")
	m.AssignPermissionToUser("u1", "posts:read")

	// Direct grant, role grant, and neither.
	require.True(t, m.CheckPermission(user, "posts", "read"))
	require.True(t, m.CheckPermission(user, "posts", "write"))
	require.False(t, m.CheckPermission(user, "posts", "delete"))

	// Checks are recomputed every call: removing the direct grant flips the
	// answer immediately.
	require.True(t, m.RevokePermissionFromUser("u1", "posts:read"))
	require.False(t, m.CheckPermission(user, "posts", "read"))
}

func TestCheckRole(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	m.CreateRole(rbac.Role{Name: "editor"})
	require.False(t, m.CheckRole(user, "editor"))
	m.AssignRole("u1", "editor")
	require.True(t, m.CheckRole(user, "editor"))
	require.False(t, m.CheckRole(nil, "editor"))
}

func TestGetUserPermissionsDeduplicates(t *testing.T) {
	m := rbac.NewManager()

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreateRole(rbac.Role{Name: "reviewer"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "read"})
	m.AssignPermissionToRole("editor", "posts:write")
	m.AssignPermissionToRole("reviewer", "posts:write")
	m.AssignPermissionToRole("reviewer", "posts:read")
	m.AssignRole("u1", "editor")
	m.AssignRole("u1", "reviewer")
	m.AssignPermissionToUser("u1", "posts:read")

	perms := m.GetUserPermissions("u1")
	require.Len(t, perms, 2)
	require.Equal(t, "posts:read", perms[0].Key())
	require.Equal(t, "posts:write", perms[1].Key())
}

func TestGetUserRolesSorted(t *testing.T) {
	m := rbac.NewManager()

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreateRole(rbac.Role{Name: "admin"})
	m.AssignRole("u1", "editor")
	m.AssignRole("u1", "admin")

	roles := m.GetUserRoles("u1")
	require.Len(t, roles, 2)
	require.Equal(t, "admin", roles[0].Name)
	require.Equal(t, "editor", roles[1].Name)
}

func TestDeleteRoleCascades(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})
	m.AssignPermissionToRole("editor", "posts:write")
	m.AssignRole("u1", "editor")

	require.True(t, m.DeleteRole("editor"))
	require.False(t, m.DeleteRole("editor"))
	require.False(t, m.CheckRole(user, "editor"))
	require.False(t, m.CheckPermission(user, "posts", "write"))

	// Re-creating the role must not resurrect old assignments.
	require.True(t, m.CreateRole(rbac.Role{Name: "editor"}))
	require.False(t, m.CheckRole(user, "editor"))
	require.Empty(t, m.GetUserPermissions("u1"))
}

func TestDeletePermissionCascades(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})
	m.AssignPermissionToRole("editor", "posts:write")
	m.AssignPermissionToUser("u1", "posts:write")
	m.AssignRole("u1", "editor")

	require.True(t, m.DeletePermission("posts:write"))
	require.False(t, m.DeletePermission("posts:write"))
	require.False(t, m.CheckPermission(user, "posts", "write"))
	require.Empty(t, m.GetUserPermissions("u1"))
}

func TestGetAllRolesAndPermissions(t *testing.T) {
	m := rbac.NewManager()

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreateRole(rbac.Role{Name: "admin", IsSystemRole: true})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})

	roles := m.GetAllRoles()
	require.Len(t, roles, 2)
	require.Equal(t, "admin", roles[0].Name)
	require.True(t, roles[0].IsSystemRole)

	perms := m.GetAllPermissions()
	require.Len(t, perms, 1)
	require.Equal(t, "posts:write", perms[0].Key())
}

func TestConcurrentChecksDuringMutation(t *testing.T) {
	m := rbac.NewManager()
	user := testUser("u1")

	m.CreateRole(rbac.Role{Name: "editor"})
	m.CreatePermission(rbac.Permission{Resource: "posts", Action: "write"})
	m.AssignPermissionToRole("editor", "posts:write")
	m.AssignRole("u1", "editor")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("role-%d", i)
			m.CreateRole(rbac.Role{Name: name})
			m.AssignRole("u1", name)
			m.RevokeRole("u1", name)
		}(i)
		go func() {
			defer wg.Done()
			// Must never observe torn state, whatever the interleaving.
			m.CheckPermission(user, "posts", "write")
			m.GetUserPermissions("u1")
		}()
	}
	wg.Wait()

	require.True(t, m.CheckPermission(user, "posts", "write"))
}
