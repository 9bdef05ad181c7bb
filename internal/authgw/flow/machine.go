// Package flow decides which screen of the sign-in flow a browser is on.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
)

type Mode string

const (
	ModeLogin     Mode = "login"
	ModeSignUp    Mode = "signup"
	ModeForgot    Mode = "forgot"
	ModeMFASetup  Mode = "mfaSetup"
	ModeMFAVerify Mode = "mfaVerify"
	// ModeDone means the user is through and should be sent on to the app.
	ModeDone Mode = "done"
)

var ErrInvalidTransition = errors.New("flow: invalid transition")

// ParseMode accepts only the modes a user can pick directly.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeLogin, ModeSignUp, ModeForgot:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, s)
}

func (m Mode) isForm() bool {
	return m == ModeLogin || m == ModeSignUp || m == ModeForgot
}

func (m Mode) isMFA() bool {
	return m == ModeMFASetup || m == ModeMFAVerify
}

// SignOuter ends the session behind the flow.
type SignOuter interface {
	SignOut(ctx context.Context, clearDevice bool) error
}

// Machine follows the AuthState. User choices between the forms hold until
// the status changes.
type Machine struct {
	signOut SignOuter

	mu         sync.Mutex
	mode       Mode
	lastStatus domain.AuthStatus
	state      domain.AuthState
}

func NewMachine(signOut SignOuter) *Machine {
	return &Machine{signOut: signOut, mode: ModeLogin}
}

func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Apply moves to the screen for st. A state equal in status to the last
// one leaves the mode alone, so a user on the sign-up form is not bounced
// back to login by a token refresh.
func (m *Machine) Apply(st domain.AuthState) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = st
	if st.Status == m.lastStatus {
		return m.mode
	}
	m.lastStatus = st.Status
	m.route()
	return m.mode
}

func (m *Machine) route() {
	switch m.state.Status {
	case domain.StatusAuthenticated:
		m.mode = ModeDone
	case domain.StatusMFASetupPending:
		m.mode = ModeMFASetup
	case domain.StatusMFAChallengePending:
		// Without both ids there is nothing to verify against.
		if m.state.ChallengeID != "" && m.state.FactorID != "" {
			m.mode = ModeMFAVerify
		} else {
			m.mode = ModeLogin
		}
	default:
		m.mode = ModeLogin
	}
}

// Reset re-applies the last state even if its status is unchanged. Used
// once a sign-up or password reset form has finished.
func (m *Machine) Reset() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route()
	return m.mode
}

// Switch moves between login, sign-up and forgot-password. It is refused
// while an MFA step or a finished sign-in owns the screen.
func (m *Machine) Switch(to Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !to.isForm() {
		return fmt.Errorf("%w: cannot switch to %s", ErrInvalidTransition, to)
	}
	if !m.mode.isForm() {
		return fmt.Errorf("%w: cannot leave %s", ErrInvalidTransition, m.mode)
	}
	m.mode = to
	return nil
}

// Back abandons an MFA step. The session is signed out but the device stays
// remembered, and the flow returns to login even if the sign-out failed.
func (m *Machine) Back(ctx context.Context) error {
	m.mu.Lock()
	if !m.mode.isMFA() {
		mode := m.mode
		m.mu.Unlock()
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, mode)
	}
	m.mu.Unlock()

	err := m.signOut.SignOut(ctx, false)

	m.mu.Lock()
	m.mode = ModeLogin
	m.mu.Unlock()
	return err
}
