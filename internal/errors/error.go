package errors

import (
	"errors"
)

var (
	ErrEmptyAuth          = errors.New("missing authorization")
	ErrEmptySubject       = errors.New("missing subject")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient role")
	ErrSessionUnavailable = errors.New("cart session unavailable")
	ErrIdentityMissing    = errors.New("missing identity in context")
)
