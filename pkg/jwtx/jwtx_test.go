package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/invoicely/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestNewHS256RejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewHS256([]byte("short"), "")
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestSignVerifySessionClaims(t *testing.T) {
	s, err := jwtx.NewHS256(secret, "https://id.example.com")
	require.NoError(t, err)

	now := time.Now()
	claims := jwtx.NewSessionClaims("user-1", "a@example.com", "sess-1", s.Issuer(),
		[]jwtx.AMREntry{{Method: "password", Timestamp: now.Unix()}, {Method: "totp", Timestamp: now.Unix()}},
		jwtx.DefaultAccessTokenTTL, now)
	require.Equal(t, jwtx.AAL2, claims.AAL)

	raw, err := s.Sign(claims)
	require.NoError(t, err)

	var got jwtx.SessionClaims
	require.NoError(t, s.Verify(raw, &got))
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sess-1", got.SessionID)
	require.True(t, got.HasMFA())
}

func TestPasswordOnlyIsAAL1(t *testing.T) {
	c := jwtx.NewSessionClaims("u", "e", "s", "", []jwtx.AMREntry{{Method: "password"}}, time.Minute, time.Now())
	require.Equal(t, jwtx.AAL1, c.AAL)
	require.False(t, c.HasMFA())
}

func TestVerifyFailures(t *testing.T) {
	s, err := jwtx.NewHS256(secret, "issuer-a")
	require.NoError(t, err)
	now := time.Now()

	t.Run("expired", func(t *testing.T) {
		raw, err := s.Sign(jwtx.NewDeviceClaims("u", "d", "issuer-a", now.Add(-time.Minute), now.Add(-time.Hour)))
		require.NoError(t, err)
		require.ErrorIs(t, s.Verify(raw, &jwtx.DeviceClaims{}), jwtx.ErrExpired)
	})

	t.Run("tampered", func(t *testing.T) {
		raw, err := s.Sign(jwtx.NewDeviceClaims("u", "d", "issuer-a", now.Add(time.Hour), now))
		require.NoError(t, err)
		parts := strings.Split(raw, ".")
		parts[2] = strings.Repeat("A", len(parts[2]))
		require.Error(t, s.Verify(strings.Join(parts, "."), &jwtx.DeviceClaims{}))
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "issuer-a")
		require.NoError(t, err)
		raw, err := other.Sign(jwtx.NewDeviceClaims("u", "d", "issuer-a", now.Add(time.Hour), now))
		require.NoError(t, err)
		require.Error(t, s.Verify(raw, &jwtx.DeviceClaims{}))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		raw, err := s.Sign(jwtx.NewDeviceClaims("u", "d", "issuer-b", now.Add(time.Hour), now))
		require.NoError(t, err)
		require.Error(t, s.Verify(raw, &jwtx.DeviceClaims{}))
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewDeviceClaims("u", "d", "issuer-a", now.Add(time.Hour), now))
		raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		require.Error(t, s.Verify(raw, &jwtx.DeviceClaims{}))
	})

	t.Run("malformed", func(t *testing.T) {
		require.ErrorIs(t, s.Verify("not.a.jwt", &jwtx.DeviceClaims{}), jwtx.ErrMalformed)
	})
}

func TestParseUnverifiedReadsAAL(t *testing.T) {
	s, err := jwtx.NewHS256(secret, "")
	require.NoError(t, err)

	raw, err := s.Sign(jwtx.NewSessionClaims("u", "e", "s", "", []jwtx.AMREntry{{Method: "totp"}}, time.Minute, time.Now()))
	require.NoError(t, err)

	var c jwtx.SessionClaims
	require.NoError(t, jwtx.ParseUnverified(raw, &c))
	require.Equal(t, jwtx.AAL2, c.AAL)

	require.ErrorIs(t, jwtx.ParseUnverified("garbage", &c), jwtx.ErrMalformed)
}
