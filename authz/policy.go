package authz

// RequirementKind discriminates the predicate types a policy can carry.
type RequirementKind int

const (
	KindAuth RequirementKind = iota
	KindAnyRole
	KindAllPermissions
)

// Requirement is one predicate attached to a protected operation. Within a
// role requirement the listed roles combine with OR; within a permission
// requirement the listed permissions combine with AND.
type Requirement struct {
	Kind        RequirementKind
	Roles       []string
	Permissions []string
}

// Policy is the ordered requirement list for one protected operation. All
// requirements must pass (AND); evaluation short-circuits on the first
// failure.
type Policy []Requirement

// RequireAuth demands a valid bearer token resolving to a known user.
func RequireAuth() Requirement {
	return Requirement{Kind: KindAuth}
}

// RequireAnyRole passes when the caller holds at least one of the roles.
func RequireAnyRole(roles ...string) Requirement {
	return Requirement{Kind: KindAnyRole, Roles: roles}
}

// RequireAllPermissions passes only when the caller holds every listed
// permission key.
func RequireAllPermissions(permissions ...string) Requirement {
	return Requirement{Kind: KindAllPermissions, Permissions: permissions}
}
