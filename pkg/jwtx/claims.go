package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL matches the identity service default of one hour.
const DefaultAccessTokenTTL = time.Hour

// Authenticator assurance levels carried in the "aal" claim.
const (
	AAL1 = "aal1" // password only
	AAL2 = "aal2" // password plus a verified second factor
)

// AMREntry is a single element of the "amr" claim. The identity service
// records every method used in the session together with when it happened.
type AMREntry struct {
	Method    string `json:"method"`
	Timestamp int64  `json:"timestamp"`
}

// SessionClaims are the access-token claims issued by a GoTrue-compatible
// identity service. Only the fields the gateway reads are modelled.
type SessionClaims struct {
	jwt.RegisteredClaims

	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	AAL       string     `json:"aal,omitempty"`
	AMR       []AMREntry `json:"amr,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
}

// NewSessionClaims builds access-token claims. The assurance level is derived
// from the methods: any "totp" entry lifts the session to aal2.
func NewSessionClaims(
	subject, email, sessionID, issuer string,
	amr []AMREntry,
	ttl time.Duration,
	now time.Time,
) SessionClaims {
	aal := AAL1
	if slices.ContainsFunc(amr, func(e AMREntry) bool { return e.Method == "totp" }) {
		aal = AAL2
	}

	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:     email,
		Role:      "authenticated",
		AAL:       aal,
		AMR:       amr,
		SessionID: sessionID,
	}
}

// HasMFA reports whether a second factor was verified in this session.
func (c *SessionClaims) HasMFA() bool { return c.AAL == AAL2 }

// DeviceClaims back the signed device-trust cookie. Subject is the user id and
// ExpiresAt mirrors the trust expiry.
type DeviceClaims struct {
	jwt.RegisteredClaims

	DeviceID string `json:"did"`
}

// NewDeviceClaims builds device-trust claims expiring at expiresAt.
func NewDeviceClaims(userID, deviceID, issuer string, expiresAt, now time.Time) DeviceClaims {
	return DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        NewJTI(),
		},
		DeviceID: deviceID,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
