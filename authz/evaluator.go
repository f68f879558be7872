package authz

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-auth-core/auth"
	"github.com/jrsteele09/go-auth-core/rbac"
	"github.com/jrsteele09/go-auth-core/token"
	"github.com/jrsteele09/go-auth-core/users"
	"github.com/pkg/errors"
)

// Evaluator turns a Policy into a single admit-or-deny decision for a
// protected operation. Authentication is checked first (resolving the caller
// from the bearer token), then role requirements, then permission
// requirements. Role and permission checks run against live RBAC state, not
// the snapshot embedded in the token.
type Evaluator struct {
	provider *auth.Provider
	rbac     *rbac.Manager
}

func NewEvaluator(provider *auth.Provider, rbacManager *rbac.Manager) (*Evaluator, error) {
	if provider == nil {
		return nil, errors.New("[NewEvaluator] auth provider is required")
	}
	if rbacManager == nil {
		return nil, errors.New("[NewEvaluator] rbac manager is required")
	}
	return &Evaluator{provider: provider, rbac: rbacManager}, nil
}

// Evaluate admits or denies a caller presenting rawToken against the policy.
// On admission it returns the resolved user. Denials carry a typed error:
// token failures wrap token.ErrInvalidToken, a vanished account surfaces
// auth.ErrUserNotFound, and role/permission shortfalls wrap ErrAuthorization.
func (e *Evaluator) Evaluate(ctx context.Context, rawToken string, policy Policy) (*users.User, error) {
	if len(policy) == 0 {
		return nil, nil
	}

	user, err := e.resolveCaller(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	for _, requirement := range policy {
		if requirement.Kind != KindAnyRole {
			continue
		}
		if err := e.checkAnyRole(user, requirement.Roles); err != nil {
			return nil, err
		}
	}

	for _, requirement := range policy {
		if requirement.Kind != KindAllPermissions {
			continue
		}
		if err := e.checkAllPermissions(user, requirement.Permissions); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (e *Evaluator) resolveCaller(ctx context.Context, rawToken string) (*users.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.WithMessage(token.ErrInvalidToken, "missing bearer token")
	}

	payload, err := e.provider.ValidateToken(rawToken)
	if err != nil {
		return nil, err
	}

	user := e.provider.GetUserByID(ctx, payload.UserID)
	if user == nil {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

func (e *Evaluator) checkAnyRole(user *users.User, roles []string) error {
	for _, role := range roles {
		if e.rbac.CheckRole(user, role) {
			return nil
		}
	}
	return errors.WithMessagef(ErrAuthorization, "requires one of roles %v", roles)
}

func (e *Evaluator) checkAllPermissions(user *users.User, permissionKeys []string) error {
	for _, key := range permissionKeys {
		resource, action, ok := strings.Cut(key, ":")
		if !ok || !e.rbac.CheckPermission(user, resource, action) {
			return errors.WithMessagef(ErrAuthorization, "requires permission %q", key)
		}
	}
	return nil
}
