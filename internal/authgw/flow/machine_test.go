package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/flow"
)

type signOutRecorder struct {
	calls []bool
	err   error
}

func (s *signOutRecorder) SignOut(_ context.Context, clearDevice bool) error {
	s.calls = append(s.calls, clearDevice)
	return s.err
}

var user = &domain.User{ID: "u1", Email: "u1@example.com"}

func state(status domain.AuthStatus, challengeID, factorID string) domain.AuthState {
	return domain.AuthState{Status: status, User: user, ChallengeID: challengeID, FactorID: factorID}
}

func TestApplyRoutesByStatus(t *testing.T) {
	tests := []struct {
		name  string
		state domain.AuthState
		want  flow.Mode
	}{
		{"unauthenticated", domain.Unauthenticated(), flow.ModeLogin},
		{"authenticated", state(domain.StatusAuthenticated, "", ""), flow.ModeDone},
		{"setup pending", state(domain.StatusMFASetupPending, "", ""), flow.ModeMFASetup},
		{"challenge pending", state(domain.StatusMFAChallengePending, "c1", "f1"), flow.ModeMFAVerify},
		{"challenge pending without challenge", state(domain.StatusMFAChallengePending, "", "f1"), flow.ModeLogin},
		{"challenge pending without factor", state(domain.StatusMFAChallengePending, "c1", ""), flow.ModeLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := flow.NewMachine(&signOutRecorder{})
			require.Equal(t, tt.want, m.Apply(tt.state))
			require.Equal(t, tt.want, m.Mode())
		})
	}
}

func TestSwitchBetweenForms(t *testing.T) {
	m := flow.NewMachine(&signOutRecorder{})
	m.Apply(domain.Unauthenticated())

	require.NoError(t, m.Switch(flow.ModeSignUp))
	require.Equal(t, flow.ModeSignUp, m.Mode())

	// Same status again keeps the user's choice.
	m.Apply(domain.Unauthenticated())
	require.Equal(t, flow.ModeSignUp, m.Mode())

	require.NoError(t, m.Switch(flow.ModeForgot))
	require.Equal(t, flow.ModeLogin, m.Reset())

	require.ErrorIs(t, m.Switch(flow.ModeMFAVerify), flow.ErrInvalidTransition)
	require.ErrorIs(t, m.Switch(flow.ModeDone), flow.ErrInvalidTransition)

	m.Apply(state(domain.StatusMFASetupPending, "", ""))
	require.ErrorIs(t, m.Switch(flow.ModeLogin), flow.ErrInvalidTransition)
	require.Equal(t, flow.ModeMFASetup, m.Mode())
}

func TestBackSignsOutKeepingDevice(t *testing.T) {
	ctx := context.Background()
	so := &signOutRecorder{}
	m := flow.NewMachine(so)

	require.ErrorIs(t, m.Back(ctx), flow.ErrInvalidTransition)
	require.Empty(t, so.calls)

	m.Apply(state(domain.StatusMFAChallengePending, "c1", "f1"))
	require.NoError(t, m.Back(ctx))
	require.Equal(t, []bool{false}, so.calls)
	require.Equal(t, flow.ModeLogin, m.Mode())

	m.Apply(domain.Unauthenticated())
	require.Equal(t, flow.ModeLogin, m.Mode())
}

func TestBackReturnsToLoginWhenSignOutFails(t *testing.T) {
	so := &signOutRecorder{err: errors.New("network down")}
	m := flow.NewMachine(so)
	m.Apply(state(domain.StatusMFASetupPending, "", ""))

	require.Error(t, m.Back(context.Background()))
	require.Equal(t, flow.ModeLogin, m.Mode())
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"login", "signup", "forgot"} {
		m, err := flow.ParseMode(s)
		require.NoError(t, err)
		require.Equal(t, flow.Mode(s), m)
	}
	_, err := flow.ParseMode("mfaVerify")
	require.ErrorIs(t, err, flow.ErrInvalidTransition)
}
