package authz

import "github.com/pkg/errors"

// ErrAuthorization means the caller authenticated fine but lacks a required
// role or permission. Boundary layers map it to a "forbidden" status, as
// opposed to token failures which map to "unauthenticated".
var ErrAuthorization = errors.New("insufficient role or permission")
