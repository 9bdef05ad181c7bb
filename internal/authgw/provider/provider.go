// Package provider defines the boundary to the external identity service.
//
// Drivers keep one browser's session in memory and notify subscribers of
// session changes. Every driver must reproduce the sign-up contract: a user
// that already exists but has not confirmed their email is returned with an
// empty identity list instead of an error.
package provider

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
)

// EventType names a session change.
type EventType string

const (
	EventInitialSession       EventType = "INITIAL_SESSION"
	EventSignedIn             EventType = "SIGNED_IN"
	EventSignedOut            EventType = "SIGNED_OUT"
	EventTokenRefreshed       EventType = "TOKEN_REFRESHED"
	EventUserUpdated          EventType = "USER_UPDATED"
	EventPasswordRecovery     EventType = "PASSWORD_RECOVERY"
	EventMFAChallengeVerified EventType = "MFA_CHALLENGE_VERIFIED"
)

type Event struct {
	Type    EventType
	Session *domain.Session
}

// Listener receives events in emission order. It must not block.
type Listener func(Event)

// ErrSessionMissing is returned by calls that need a signed-in session.
var ErrSessionMissing = errors.New("auth session missing")

type SignUpParams struct {
	Email           string
	Password        string
	EmailRedirectTo string
	Metadata        map[string]any
}

// SignUpResponse carries the created user and, when the service confirms
// accounts immediately, a session.
type SignUpResponse struct {
	User    *domain.User
	Session *domain.Session
}

// IdentityProvider is one browser's view of the identity service.
type IdentityProvider interface {
	// GetSession returns the current session, refreshing an expired access
	// token first. No session is (nil, nil).
	GetSession(ctx context.Context) (*domain.Session, error)
	// Subscribe registers fn and immediately delivers INITIAL_SESSION.
	Subscribe(fn Listener) (unsubscribe func())

	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, p SignUpParams) (*SignUpResponse, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error

	EnrollTOTP(ctx context.Context, friendlyName string) (*domain.TOTPEnrollment, error)
	Unenroll(ctx context.Context, factorID string) error
	ListFactors(ctx context.Context) (domain.FactorList, error)
	Challenge(ctx context.Context, factorID string) (*domain.Challenge, error)
	Verify(ctx context.Context, factorID, challengeID, code string) (*domain.MFAVerification, error)
}
