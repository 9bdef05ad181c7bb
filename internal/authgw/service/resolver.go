package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

// TrustChecker reports whether the current browser may skip MFA for a user.
// *devicetrust.Store satisfies it.
type TrustChecker interface {
	IsTrusted(ctx context.Context, userID string) bool
}

// MFAResolver decides whether a signed-in user still has to pass MFA.
type MFAResolver struct {
	Provider provider.IdentityProvider
	// Trust is optional. Without it no device is ever trusted.
	Trust  TrustChecker
	Logger *slog.Logger
}

// Resolve returns NeedsMFA=false for a trusted device. Otherwise MFA is
// needed, and a challenge is issued against the first verified TOTP factor
// when one exists. Without a verified factor the caller routes to setup.
// Listing and challenge errors are returned as is; guessing a state here
// could let a user skip MFA.
//
// The session's AAL is not consulted. An aal2 session on an untrusted
// device is challenged again whenever the state is re-derived.
func (r *MFAResolver) Resolve(ctx context.Context, userID string) (domain.MFAState, error) {
	log := slogx.OrDiscard(r.Logger).With("user_id", userID)

	if r.Trust != nil && r.Trust.IsTrusted(ctx, userID) {
		log.Debug("mfa skipped for trusted device")
		return domain.MFAState{NeedsMFA: false}, nil
	}

	factors, err := r.Provider.ListFactors(ctx)
	if err != nil {
		log.Error("failed to list mfa factors", "error", err)
		return domain.MFAState{}, fmt.Errorf("list factors: %w", err)
	}

	if len(factors.All) == 0 || len(factors.TOTP) == 0 {
		// Nothing enrolled, or only an abandoned enrollment.
		return domain.MFAState{NeedsMFA: true}, nil
	}

	factorID := factors.TOTP[0].ID
	ch, err := r.Provider.Challenge(ctx, factorID)
	if err != nil {
		log.Error("failed to create mfa challenge", "factor_id", factorID, "error", err)
		return domain.MFAState{}, fmt.Errorf("create challenge: %w", err)
	}

	return domain.MFAState{NeedsMFA: true, ChallengeID: ch.ID, FactorID: factorID}, nil
}
