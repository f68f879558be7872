package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Token type claim values. A token is issued as exactly one of these and the
// verify paths reject the other kind.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const (
	defaultAccessTokenExpiry  = 30 * time.Minute
	defaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// reservedClaims are set by the Manager and cannot be overridden by caller
// supplied extra claims.
var reservedClaims = map[string]struct{}{
	"user_id":     {},
	"username":    {},
	"roles":       {},
	"permissions": {},
	"iat":         {},
	"exp":         {},
	"type":        {},
	"jti":         {},
}

// Claims is the caller-facing input for access token generation. Roles and
// Permissions are embedded as a snapshot at issuance time; they are not
// re-resolved on verification.
type Claims struct {
	UserID      string
	Username    string
	Roles       []string
	Permissions []string
	Extra       map[string]any
}

// Payload is the decoded content of a verified access token. It is transient,
// rebuilt on every verification call, and never persisted.
type Payload struct {
	UserID      string
	Username    string
	Roles       []string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	ExtraClaims map[string]any
	JTI         string
}

// Manager issues, verifies and revokes signed bearer tokens. Revocation is
// deny-list based: a JWT is self-verifying, so logout before natural expiry
// only works by tracking revoked jtis until their exp passes.
type Manager struct {
	signer             Signer
	revokedCache       RevokedTokenCache
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		revokedCache: NewInMemoryRevokedTokenCache(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = defaultAccessTokenExpiry
	}
	if m.refreshTokenExpiry == 0 {
		m.refreshTokenExpiry = defaultRefreshTokenExpiry
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// AccessTokenTTL returns the configured access token lifetime.
func (m *Manager) AccessTokenTTL() time.Duration {
	return m.accessTokenExpiry
}

// GenerateAccessToken issues a signed access token embedding the supplied
// claims plus iat, exp, type and a unique jti. Caller extra claims are merged
// in; reserved claim names are silently skipped.
func (m *Manager) GenerateAccessToken(claims Claims) (string, error) {
	now := m.nowFunc()

	jwtClaims := jwt.MapClaims{
		"user_id":     claims.UserID,
		"username":    claims.Username,
		"roles":       claims.Roles,
		"permissions": claims.Permissions,
		"iat":         now.Unix(),
		"exp":         now.Add(m.accessTokenExpiry).Unix(),
		"type":        TypeAccess,
		"jti":         uuid.New().String(),
	}

	for k, v := range claims.Extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		jwtClaims[k] = v
	}

	signed, err := m.signer.Sign(jwtClaims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.GenerateAccessToken sign")
	}
	return signed, nil
}

// GenerateRefreshToken issues a signed refresh token carrying only the user
// identity. Refresh tokens get a longer TTL and their own jti.
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	now := m.nowFunc()

	jwtClaims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(m.refreshTokenExpiry).Unix(),
		"type":    TypeRefresh,
		"jti":     uuid.New().String(),
	}

	signed, err := m.signer.Sign(jwtClaims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.GenerateRefreshToken sign")
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token. Every failure wraps
// ErrInvalidToken; the sub-kind tells expired, malformed, wrong-type and
// revoked apart.
func (m *Manager) VerifyAccessToken(rawToken string) (*Payload, error) {
	claims, err := m.parseAndCheck(rawToken, TypeAccess)
	if err != nil {
		return nil, err
	}
	return payloadFromClaims(claims), nil
}

// VerifyRefreshToken validates a refresh token and returns the user ID it was
// issued for.
func (m *Manager) VerifyRefreshToken(rawToken string) (string, error) {
	claims, err := m.parseAndCheck(rawToken, TypeRefresh)
	if err != nil {
		return "", err
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", errors.WithMessage(ErrTokenMalformed, "missing user_id claim")
	}
	return userID, nil
}

// RevokeToken deny-lists a token by its jti until the token's own exp passes.
// Revoking twice is not an error. Returns false only when the token cannot be
// parsed against the signer, since there is then no jti to track. A token
// that has already expired needs no tracking and revocation succeeds as a
// no-op.
func (m *Manager) RevokeToken(rawToken string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.Parse(rawToken, m.signer.GetVerificationKey)
	if err != nil || !parsed.Valid {
		return false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	jti, _ := claims["jti"].(string)
	exp, expOK := claims["exp"].(float64)
	if jti == "" || !expOK {
		return false
	}

	expTime := time.Unix(int64(exp), 0)
	if !m.nowFunc().Before(expTime) {
		return true
	}
	return m.revokedCache.Add(jti, expTime) == nil
}

// CleanupRevokedTokens prunes deny-list entries whose exp has passed,
// measured against the Manager's clock, and returns the number removed.
func (m *Manager) CleanupRevokedTokens() int {
	return m.revokedCache.Cleanup(m.nowFunc())
}

func (m *Manager) parseAndCheck(rawToken, wantType string) (jwt.MapClaims, error) {
	parsed, err := jwt.NewParser(jwt.WithTimeFunc(m.nowFunc)).Parse(rawToken, m.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.WithMessage(ErrTokenMalformed, err.Error())
	}
	if !parsed.Valid {
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.WithMessage(ErrTokenMalformed, "unexpected claims format")
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return nil, errors.WithMessagef(ErrWrongTokenType, "got %q, want %q", tokenType, wantType)
	}

	if jti, _ := claims["jti"].(string); jti != "" && m.revokedCache.IsRevoked(jti) {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func payloadFromClaims(claims jwt.MapClaims) *Payload {
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	jti, _ := claims["jti"].(string)

	extra := make(map[string]any)
	for k, v := range claims {
		if _, reserved := reservedClaims[k]; !reserved {
			extra[k] = v
		}
	}

	return &Payload{
		UserID:      userID,
		Username:    username,
		Roles:       stringSliceClaim(claims["roles"]),
		Permissions: stringSliceClaim(claims["permissions"]),
		IssuedAt:    time.Unix(int64(iat), 0).UTC(),
		ExpiresAt:   time.Unix(int64(exp), 0).UTC(),
		ExtraClaims: extra,
		JTI:         jti,
	}
}

func stringSliceClaim(claim any) []string {
	values, ok := claim.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
