package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrTokenInvalid       = errors.New("token has expired or is invalid")
	ErrWrongTokenType     = errors.New("invalid token type")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account disabled")
)

// ValidationError reports a single malformed or conflicting input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// PermissionDeniedError is returned when a permission predicate rejects the
// caller. Reason enumerates the missing permission codes.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string { return e.Reason }

// RoleDeniedError is returned when a role predicate rejects the caller.
type RoleDeniedError struct {
	Reason string
}

func (e *RoleDeniedError) Error() string { return e.Reason }

// AccessDeniedError covers denials that are neither permission- nor
// role-specific: combinator aggregates, inactive accounts, missing
// superadmin privileges.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string { return e.Reason }

// DenialReason extracts the human-readable reason from any authorization
// denial error. The second return is false for non-denial errors, which
// callers must treat as infrastructure failures rather than a 403.
func DenialReason(err error) (string, bool) {
	var permErr *PermissionDeniedError
	if errors.As(err, &permErr) {
		return permErr.Reason, true
	}
	var roleErr *RoleDeniedError
	if errors.As(err, &roleErr) {
		return roleErr.Reason, true
	}
	var accessErr *AccessDeniedError
	if errors.As(err, &accessErr) {
		return accessErr.Reason, true
	}
	return "", false
}
