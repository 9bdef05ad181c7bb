package domain

import (
	"errors"
	"fmt"
)

// AuthStatus is the authentication progress of a browser session.
type AuthStatus string

const (
	StatusUnauthenticated     AuthStatus = "unauthenticated"
	StatusAuthenticated       AuthStatus = "authenticated"
	StatusMFASetupPending     AuthStatus = "mfaSetupPending"
	StatusMFAChallengePending AuthStatus = "mfaChallengePending"
)

func (s AuthStatus) Valid() bool {
	switch s {
	case StatusUnauthenticated, StatusAuthenticated, StatusMFASetupPending, StatusMFAChallengePending:
		return true
	}
	return false
}

var ErrInvalidAuthState = errors.New("invalid auth state")

// AuthState decides which screen the UI shows. It is derived on every
// identity-provider event and never persisted.
type AuthState struct {
	Status      AuthStatus `json:"status"`
	Session     *Session   `json:"-"`
	User        *User      `json:"user,omitempty"`
	ChallengeID string     `json:"challenge_id,omitempty"`
	FactorID    string     `json:"factor_id,omitempty"`
}

// Unauthenticated is the fail-safe state.
func Unauthenticated() AuthState {
	return AuthState{Status: StatusUnauthenticated}
}

// Validate enforces the structural rules of a state:
//   - user is absent iff unauthenticated
//   - a pending challenge carries both the challenge and the factor id
//   - a challenge id never appears outside a pending challenge
func (s AuthState) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidAuthState, s.Status)
	}

	if (s.User == nil) != (s.Status == StatusUnauthenticated) {
		return fmt.Errorf("%w: user presence does not match %s", ErrInvalidAuthState, s.Status)
	}

	switch s.Status {
	case StatusMFAChallengePending:
		if s.ChallengeID == "" || s.FactorID == "" {
			return fmt.Errorf("%w: challenge pending without challenge and factor", ErrInvalidAuthState)
		}
	case StatusMFASetupPending:
		if s.ChallengeID != "" {
			return fmt.Errorf("%w: challenge id during setup", ErrInvalidAuthState)
		}
	default:
		if s.ChallengeID != "" || s.FactorID != "" {
			return fmt.Errorf("%w: mfa ids on %s state", ErrInvalidAuthState, s.Status)
		}
	}

	return nil
}

// UserID is a nil-safe accessor.
func (s AuthState) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
