package domain

import "time"

// Identity is one login method linked to a user (email, oauth...).
type Identity struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Identities       []Identity     `json:"-"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
}

// Session is the identity provider's opaque session handle. Tokens never
// leave the gateway.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AAL          string // "aal1" or "aal2", read from the access token
	User         *User
}

// Expired reports whether the access token should be refreshed. A small skew
// avoids handing out tokens that expire in flight.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Add(10*time.Second).Before(s.ExpiresAt)
}
