package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/provider/memory"
)

func TestInitialStateIsDelivered(t *testing.T) {
	h := newHarness(t)
	rec := h.subscribe(t)
	rec.await(t, domain.StatusUnauthenticated)
}

// Full sign-in with a verified factor and an untrusted device, then the
// correct code.
func TestScenarioHappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	factorID, secret, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)

	rec := h.subscribe(t)
	rec.await(t, domain.StatusUnauthenticated)

	h.signIn(t)
	pending := rec.await(t, domain.StatusMFAChallengePending)
	require.Equal(t, factorID, pending.FactorID)
	require.NotEmpty(t, pending.ChallengeID)

	_, err = h.svc.VerifyMFATOTP(ctx, pending.FactorID, h.code(t, secret), pending.ChallengeID)
	require.NoError(t, err)

	done := rec.await(t, domain.StatusAuthenticated)
	require.Equal(t, u.ID, done.UserID())
	require.Empty(t, done.ChallengeID)
	require.Equal(t, "aal2", done.Session.AAL)
}

// A verified challenge would re-resolve to another pending challenge; the
// delivered state must be authenticated anyway.
func TestVerifiedChallengeIsCoercedToAuthenticated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	factorID, secret, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	h.signIn(t)

	// Re-resolution alone still says pending.
	st, err := h.svc.GetAuthState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusMFAChallengePending, st.Status)

	rec := h.subscribe(t)
	rec.await(t, domain.StatusMFAChallengePending)

	_, err = h.svc.VerifyMFATOTP(ctx, factorID, h.code(t, secret), "")
	require.NoError(t, err)
	rec.await(t, domain.StatusAuthenticated)

	st, err = h.svc.GetAuthState(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.StatusMFAChallengePending, st.Status)
}

// Wrong credentials first, then the right ones from a remembered device:
// no MFA state is ever visited.
func TestScenarioWrongThenRightCredentials(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	_, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)
	require.NoError(t, h.trust.StoreTrust(ctx, u.ID))

	rec := h.subscribe(t)

	err = h.svc.SignIn(ctx, "wrong@example.com", "bad")
	require.Error(t, err)

	require.NoError(t, h.svc.SignIn(ctx, email, password))
	rec.await(t, domain.StatusAuthenticated)

	for _, s := range rec.statuses() {
		require.NotEqual(t, domain.StatusMFAChallengePending, s)
		require.NotEqual(t, domain.StatusMFASetupPending, s)
	}
}

// Backing out of a challenge signs out; signing in again challenges again.
func TestScenarioBackOutOfChallenge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t)
	_, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)

	rec := h.subscribe(t)
	h.signIn(t)
	first := rec.await(t, domain.StatusMFAChallengePending)

	require.NoError(t, h.svc.SignOut(ctx))
	rec.await(t, domain.StatusUnauthenticated)

	h.signIn(t)
	second := rec.await(t, domain.StatusMFAChallengePending)
	require.Equal(t, first.FactorID, second.FactorID)
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)
}

func TestDerivationErrorDeliversUnauthenticated(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	_, _, err := h.backend.SeedTOTPFactor(u.ID, "phone", true)
	require.NoError(t, err)

	rec := h.subscribe(t)
	rec.await(t, domain.StatusUnauthenticated)

	h.backend.InjectFault(memory.OpChallenge, errors.New("challenge refused"))
	h.signIn(t)

	st := rec.await(t, domain.StatusUnauthenticated)
	require.Nil(t, st.User)
	require.Nil(t, st.Session)
}

func TestUnsubscribeFromCallback(t *testing.T) {
	h := newHarness(t)
	h.user(t)

	calls := make(chan domain.AuthState, 8)
	var unsub func()
	ready := make(chan struct{})
	unsub = h.svc.OnAuthStateChange(context.Background(), func(s domain.AuthState) {
		<-ready
		calls <- s
		unsub()
		unsub()
	})
	close(ready)

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("initial state never delivered")
	}

	h.signIn(t)
	select {
	case s := <-calls:
		t.Fatalf("delivered after unsubscribe: %v", s.Status)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelledContextStopsDelivery(t *testing.T) {
	h := newHarness(t)
	h.user(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan domain.AuthState, 8)
	unsub := h.svc.OnAuthStateChange(ctx, func(s domain.AuthState) { calls <- s })
	defer unsub()

	<-calls
	cancel()
	time.Sleep(20 * time.Millisecond)

	h.signIn(t)
	select {
	case s := <-calls:
		t.Fatalf("delivered after cancel: %v", s.Status)
	case <-time.After(100 * time.Millisecond):
	}
}
