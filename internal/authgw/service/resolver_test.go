package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/memory"
)

func TestResolveTrustedDeviceSkipsMFA(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	_, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	h.signIn(t)

	require.NoError(t, h.trust.StoreTrust(ctx, u.ID))

	// A failing listing proves the provider is never asked.
	h.backend.InjectFault(memory.OpListFactors, errors.New("must not be called"))

	st, err := h.svc.Resolver.Resolve(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFAState{NeedsMFA: false}, st)
}

func TestResolveWithoutVerifiedFactorRoutesToSetup(t *testing.T) {
	tests := []struct {
		name     string
		factors  []bool // verified flags
		wantMFA  bool
		wantChal bool
	}{
		{name: "no factors", factors: nil, wantMFA: true},
		{name: "unverified only", factors: []bool{false}, wantMFA: true},
		{name: "several unverified", factors: []bool{false, false}, wantMFA: true},
		{name: "one verified", factors: []bool{true}, wantMFA: true, wantChal: true},
		{name: "unverified then verified", factors: []bool{false, true}, wantMFA: true, wantChal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			u := h.user(t)
			for _, verified := range tt.factors {
				_, _, err := h.backend.SeedTOTPFactor(u.ID, "", verified)
				require.NoError(t, err)
			}
			h.signIn(t)

			st, err := h.svc.Resolver.Resolve(ctx, u.ID)
			require.NoError(t, err)
			require.Equal(t, tt.wantMFA, st.NeedsMFA)
			require.Equal(t, tt.wantChal, st.ChallengeID != "")
			if !tt.wantChal {
				require.Empty(t, st.FactorID)
			}
		})
	}
}

func TestResolveChallengesFirstVerifiedFactor(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)

	_, _, err := h.backend.SeedTOTPFactor(u.ID, "stale", false)
	require.NoError(t, err)
	first, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	_, _, err = h.backend.SeedTOTPFactor(u.ID, "tablet", true)
	require.NoError(t, err)
	h.signIn(t)

	st, err := h.svc.Resolver.Resolve(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, st.NeedsMFA)
	require.NotEmpty(t, st.ChallengeID)
	require.Equal(t, first, st.FactorID)
}

func TestResolveErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	_, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	h.signIn(t)

	listErr := errors.New("factors unavailable")
	h.backend.InjectFault(memory.OpListFactors, listErr)
	_, err = h.svc.Resolver.Resolve(ctx, u.ID)
	require.ErrorIs(t, err, listErr)

	challengeErr := errors.New("challenge refused")
	h.backend.InjectFault(memory.OpChallenge, challengeErr)
	_, err = h.svc.Resolver.Resolve(ctx, u.ID)
	require.ErrorIs(t, err, challengeErr)
}

func TestAAL2SessionOnUntrustedDeviceIsChallengedAgain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	_, secret, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	h.signIn(t)

	st, err := h.svc.GetAuthState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusMFAChallengePending, st.Status)

	res, err := h.svc.VerifyMFATOTP(ctx, st.FactorID, h.code(t, secret), st.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, "aal2", res.Session.AAL)

	st, err = h.svc.GetAuthState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusMFAChallengePending, st.Status)
	require.NotEmpty(t, st.ChallengeID)
}
