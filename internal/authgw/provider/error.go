package provider

import (
	"errors"
	"net/http"
)

// MsgInvalidCredentials is the identity service's wording for a bad
// email/password pair.
const MsgInvalidCredentials = "Invalid login credentials"

// Error is an error reported by the identity service. Message is shown to
// users verbatim.
type Error struct {
	Status  int    // HTTP status, 0 when unknown
	Code    string // machine code, e.g. "invalid_credentials"
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorFrom extracts a provider error from err's chain.
func ErrorFrom(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsInvalidCredentials reports whether err is a rejected email/password.
func IsInvalidCredentials(err error) bool {
	pe, ok := ErrorFrom(err)
	if !ok {
		return false
	}
	return pe.Code == "invalid_credentials" || pe.Message == MsgInvalidCredentials
}

// IsSessionGone reports whether err means the session can no longer be used
// (revoked or expired refresh token).
func IsSessionGone(err error) bool {
	if errors.Is(err, ErrSessionMissing) {
		return true
	}
	pe, ok := ErrorFrom(err)
	if !ok {
		return false
	}
	switch pe.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

func Errorf(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}
