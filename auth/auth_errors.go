package auth

import "github.com/pkg/errors"

var (
	// ErrAuthentication covers bad credentials. The public Authenticate path
	// never surfaces it directly; callers get a generic AuthResult message so
	// a failed login reveals nothing about which check failed.
	ErrAuthentication = errors.New("authentication failed")

	// ErrUserNotFound and ErrUserInactive exist for admin tooling that must
	// distinguish "no such account" from "disabled account".
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is inactive")
)

// genericAuthFailure is the only message Authenticate returns on any
// credential failure, so usernames cannot be enumerated.
const genericAuthFailure = "invalid credentials"
