package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/stretchr/testify/require"
)

func TestAuthStateValidate(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "u1@example.com"}

	tests := []struct {
		name  string
		state domain.AuthState
		ok    bool
	}{
		{"unauthenticated", domain.Unauthenticated(), true},
		{"unauthenticated with user", domain.AuthState{Status: domain.StatusUnauthenticated, User: user}, false},
		{"authenticated", domain.AuthState{Status: domain.StatusAuthenticated, User: user}, true},
		{"authenticated without user", domain.AuthState{Status: domain.StatusAuthenticated}, false},
		{"authenticated with challenge", domain.AuthState{Status: domain.StatusAuthenticated, User: user, ChallengeID: "c"}, false},
		{"setup pending", domain.AuthState{Status: domain.StatusMFASetupPending, User: user}, true},
		{"setup pending with factor", domain.AuthState{Status: domain.StatusMFASetupPending, User: user, FactorID: "f"}, true},
		{"setup pending with challenge", domain.AuthState{Status: domain.StatusMFASetupPending, User: user, ChallengeID: "c"}, false},
		{"challenge pending", domain.AuthState{Status: domain.StatusMFAChallengePending, User: user, ChallengeID: "c", FactorID: "f"}, true},
		{"challenge pending without factor", domain.AuthState{Status: domain.StatusMFAChallengePending, User: user, ChallengeID: "c"}, false},
		{"challenge pending without challenge", domain.AuthState{Status: domain.StatusMFAChallengePending, User: user, FactorID: "f"}, false},
		{"unknown status", domain.AuthState{Status: "weird", User: user}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, domain.ErrInvalidAuthState)
			}
		})
	}
}

func TestNewFactorListKeepsProviderOrder(t *testing.T) {
	list := domain.NewFactorList([]domain.Factor{
		{ID: "a", Type: domain.FactorTypeTOTP, Status: domain.FactorStatusUnverified},
		{ID: "b", Type: domain.FactorTypeTOTP, Status: domain.FactorStatusVerified},
		{ID: "c", Type: "phone", Status: domain.FactorStatusVerified},
		{ID: "d", Type: domain.FactorTypeTOTP, Status: domain.FactorStatusVerified},
	})

	require.Len(t, list.All, 4)
	require.Len(t, list.TOTP, 2)
	require.Equal(t, "b", list.TOTP[0].ID)
	require.Equal(t, "d", list.TOTP[1].ID)
}

func TestSignUpInputMetadata(t *testing.T) {
	require.Nil(t, domain.SignUpInput{}.Metadata())
	require.Equal(t,
		map[string]any{"display_name": "John Doe", "company_name": "Acme Corp"},
		domain.SignUpInput{DisplayName: "John Doe", CompanyName: "Acme Corp"}.Metadata(),
	)
}

func TestExpiry(t *testing.T) {
	now := time.Now()

	tok := domain.DeviceToken{ExpiresAt: now}
	require.False(t, tok.Expired(now))
	require.True(t, tok.Expired(now.Add(time.Nanosecond)))

	var s *domain.Session
	require.True(t, s.Expired(now))
	require.False(t, (&domain.Session{ExpiresAt: now.Add(time.Hour)}).Expired(now))
	require.True(t, (&domain.Session{ExpiresAt: now.Add(5 * time.Second)}).Expired(now))
}
