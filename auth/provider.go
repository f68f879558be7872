package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-core/token"
	"github.com/jrsteele09/go-auth-core/users"
	"github.com/pkg/errors"
)

// Credentials carries a username/password pair presented at login.
type Credentials struct {
	Username string
	Password string
}

// AuthResult is the one-shot outcome of Authenticate or RefreshToken. On
// success the token fields are populated; on failure only ErrorMessage is.
// The two sets are never both set.
type AuthResult struct {
	Success      bool      `json:"success"`
	UserID       string    `json:"user_id,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func failedResult(message string) AuthResult {
	return AuthResult{Success: false, ErrorMessage: message}
}

// Provider orchestrates the user lookup collaborator, password verification
// and the token manager to implement the authenticate/refresh/logout/validate
// lifecycle.
type Provider struct {
	lookup       users.Lookup
	tokenManager *token.Manager
	nowFunc      func() time.Time
}

type ProviderOption func(*Provider)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowFunc = now
	}
}

// NewProvider initializes a Provider with its required collaborators.
func NewProvider(lookup users.Lookup, tokenManager *token.Manager, options ...ProviderOption) (*Provider, error) {
	if lookup == nil {
		return nil, errors.New("[NewProvider] user lookup is required")
	}
	if tokenManager == nil {
		return nil, errors.New("[NewProvider] token manager is required")
	}

	p := &Provider{
		lookup:       lookup,
		tokenManager: tokenManager,
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Authenticate checks the credentials and issues an access/refresh pair. Any
// credential failure, including lookup errors, collapses into one generic
// message; this path must not distinguish absent from inactive from
// wrong-password.
func (p *Provider) Authenticate(ctx context.Context, credentials Credentials) AuthResult {
	if credentials.Username == "" || credentials.Password == "" {
		return failedResult("username and password are required")
	}

	user, err := p.lookup.GetByUsername(ctx, credentials.Username)
	if err != nil || user == nil {
		return failedResult(genericAuthFailure)
	}
	if !user.IsActive {
		return failedResult(genericAuthFailure)
	}
	if !users.CheckPasswordHash(credentials.Password, user.PasswordHash) {
		return failedResult(genericAuthFailure)
	}

	return p.issueTokenPair(user)
}

// ValidateToken verifies an access token and returns its payload. Token
// errors propagate unchanged so the boundary layer can translate them.
func (p *Provider) ValidateToken(rawToken string) (*token.Payload, error) {
	return p.tokenManager.VerifyAccessToken(rawToken)
}

// RefreshToken rotates a refresh token: verify, re-fetch the user (a
// deactivated user must not be able to refresh), issue a new pair, then
// revoke the presented token so it is single-use. Failures surface as an
// unsuccessful AuthResult, never an error, so the call is safe to make
// speculatively.
func (p *Provider) RefreshToken(ctx context.Context, rawRefreshToken string) AuthResult {
	userID, err := p.tokenManager.VerifyRefreshToken(rawRefreshToken)
	if err != nil {
		return failedResult(err.Error())
	}

	user, err := p.lookup.GetByID(ctx, userID)
	if err != nil || user == nil || !user.IsActive {
		return failedResult("user not found or inactive")
	}

	result := p.issueTokenPair(user)
	if result.Success {
		p.tokenManager.RevokeToken(rawRefreshToken)
	}
	return result
}

// Logout revokes the presented access token. Best-effort: any internal
// failure returns false rather than an error, since client-side sign-out must
// never be blocked. The paired refresh token is deliberately left valid;
// revoking it is the caller's choice via RevokeToken on the refresh token.
func (p *Provider) Logout(rawToken string) bool {
	return p.tokenManager.RevokeToken(rawToken)
}

// GetUserByID fetches a user from the lookup collaborator, swallowing lookup
// errors into nil.
func (p *Provider) GetUserByID(ctx context.Context, userID string) *users.User {
	user, err := p.lookup.GetByID(ctx, userID)
	if err != nil {
		return nil
	}
	return user
}

func (p *Provider) issueTokenPair(user *users.User) AuthResult {
	accessToken, err := p.tokenManager.GenerateAccessToken(token.Claims{
		UserID:      user.ID,
		Username:    user.Username,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	})
	if err != nil {
		return failedResult("failed to issue access token")
	}

	refreshToken, err := p.tokenManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return failedResult("failed to issue refresh token")
	}

	return AuthResult{
		Success:      true,
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    p.nowFunc().Add(p.tokenManager.AccessTokenTTL()),
	}
}
