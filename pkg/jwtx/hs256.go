package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the smallest HMAC secret accepted, in bytes.
const MinSecretSize = 32

var (
	ErrWeakSecret   = errors.New("jwtx: secret too short")
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256 signs and verifies tokens with a shared HMAC-SHA256 secret. This is
// what GoTrue-compatible services use for their access tokens, and what the
// gateway uses for its own cookies.
type HS256 struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewHS256 creates an HS256 signer/verifier. An empty issuer disables issuer
// checks on Verify.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretSize, len(secret))
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &HS256{key: key, issuer: issuer}, nil
}

// WithClock returns a copy that validates time-based claims against now.
func (s *HS256) WithClock(now func() time.Time) *HS256 {
	c := *s
	c.now = now
	return &c
}

func (s *HS256) Alg() string    { return jwt.SigningMethodHS256.Alg() }
func (s *HS256) Issuer() string { return s.issuer }

// Sign serialises claims into a compact JWT.
func (s *HS256) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and (when configured) issuer of raw and
// decodes it into claims.
func (s *HS256) Verify(raw string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.now != nil {
		opts = append(opts, jwt.WithTimeFunc(s.now))
	}

	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return ErrMalformed
		}
		return fmt.Errorf("jwtx: parse or verify: %w", err)
	}
	if !token.Valid {
		return ErrInvalidClaim
	}

	return nil
}

// ParseUnverified decodes claims without checking the signature. Only use it
// for tokens received directly from a trusted party over TLS, to read hints
// such as the assurance level.
func ParseUnverified(raw string, claims jwt.Claims) error {
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
