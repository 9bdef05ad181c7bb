package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/qrx"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

const DefaultFactorName = "Authenticator App"

// MsgNoUserAfterSignIn is shown to the user when ErrNoUserAfterSignIn occurs.
const MsgNoUserAfterSignIn = "User not found after sign-in"

var (
	ErrNoUserAfterSignIn = errors.New("user not found after sign-in")
	ErrMissingFactorID   = errors.New("factor id is required")
	ErrInvalidCode       = errors.New("code must be 6 digits")
)

// AuthService is the only component that talks to the identity provider. It
// turns provider sessions into an AuthState and exposes the auth actions.
type AuthService struct {
	Provider provider.IdentityProvider
	Resolver *MFAResolver
	Logger   *slog.Logger

	// FactorName labels enrolled TOTP factors. Defaults to DefaultFactorName.
	FactorName string
	// QRSize is the rendered QR image width in pixels. Defaults to qrx.DefaultSize.
	QRSize int
}

func (s *AuthService) log() *slog.Logger {
	return slogx.OrDiscard(s.Logger).With("component", "auth_service")
}

// GetAuthState derives the state of the current session. A missing or
// unreadable session is unauthenticated. MFA resolution errors are returned;
// callers must fail safe to unauthenticated.
func (s *AuthService) GetAuthState(ctx context.Context) (domain.AuthState, error) {
	sess, err := s.Provider.GetSession(ctx)
	if err != nil {
		s.log().Warn("get session failed", "error", err)
		return domain.Unauthenticated(), nil
	}
	if sess == nil || sess.User == nil {
		return domain.Unauthenticated(), nil
	}

	mfa, err := s.Resolver.Resolve(ctx, sess.User.ID)
	if err != nil {
		return domain.AuthState{}, fmt.Errorf("resolve mfa state: %w", err)
	}

	state := domain.AuthState{Session: sess, User: sess.User}
	switch {
	case !mfa.NeedsMFA:
		state.Status = domain.StatusAuthenticated
	case mfa.ChallengeID != "":
		state.Status = domain.StatusMFAChallengePending
		state.ChallengeID = mfa.ChallengeID
		state.FactorID = mfa.FactorID
	default:
		state.Status = domain.StatusMFASetupPending
		state.FactorID = mfa.FactorID
	}
	return state, nil
}

// SignIn checks credentials only. The state change that follows arrives
// through OnAuthStateChange, so the caller never branches on MFA here.
func (s *AuthService) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if sess == nil || sess.User == nil {
		return ErrNoUserAfterSignIn
	}
	return nil
}

// SignUp never fails with an error value: every outcome, including a panic
// inside the provider, is one of the three SignUpResult shapes.
func (s *AuthService) SignUp(ctx context.Context, in domain.SignUpInput) (res domain.SignUpResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("sign up panicked", "panic", r)
			res = unexpectedSignUp()
		}
	}()

	resp, err := s.Provider.SignUp(ctx, provider.SignUpParams{
		Email:           in.Email,
		Password:        in.Password,
		EmailRedirectTo: in.EmailRedirectTo,
		Metadata:        in.Metadata(),
	})

	var pe *provider.Error
	switch {
	case errors.As(err, &pe):
		return domain.SignUpResult{Success: false, Message: pe.Message, Error: domain.SignUpErrProvider}
	case err != nil:
		s.log().Error("sign up failed", "error", err)
		return unexpectedSignUp()
	}

	// An existing but unconfirmed email comes back as a user without
	// identities instead of an error.
	if resp != nil && resp.User != nil && len(resp.User.Identities) == 0 {
		return domain.SignUpResult{
			Success: false,
			Message: domain.MsgSignUpExistsUnverified,
			Error:   domain.SignUpErrExistsUnverified,
		}
	}

	return domain.SignUpResult{Success: true, Message: domain.MsgSignUpSuccess}
}

func unexpectedSignUp() domain.SignUpResult {
	return domain.SignUpResult{Success: false, Message: domain.MsgSignUpUnexpected, Error: domain.SignUpErrUnexpected}
}

// SignOut returns the provider error with its message intact.
func (s *AuthService) SignOut(ctx context.Context) error {
	if err := s.Provider.SignOut(ctx); err != nil {
		s.log().Warn("sign out failed", "error", err)
		return err
	}
	return nil
}

func (s *AuthService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return s.Provider.ResetPasswordForEmail(ctx, email, redirectTo)
}

func (s *AuthService) factorName() string {
	if s.FactorName != "" {
		return s.FactorName
	}
	return DefaultFactorName
}

func (s *AuthService) qrSize() int {
	if s.QRSize > 0 {
		return s.QRSize
	}
	return qrx.DefaultSize
}
