package token

import "fmt"

// ErrInvalidToken is the base kind for every verification failure. The
// sub-kind sentinels below wrap it, so callers that only care about
// "unauthenticated" match with errors.Is(err, ErrInvalidToken) while tests
// and admin tooling can distinguish the cause.
var (
	ErrInvalidToken   = fmt.Errorf("invalid token")
	ErrTokenExpired   = fmt.Errorf("token expired: %w", ErrInvalidToken)
	ErrTokenRevoked   = fmt.Errorf("token revoked: %w", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("token malformed: %w", ErrInvalidToken)
	ErrWrongTokenType = fmt.Errorf("wrong token type: %w", ErrInvalidToken)
)
