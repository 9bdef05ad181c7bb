// Package devicetrust remembers browsers that completed MFA so later
// sign-ins from them can skip the challenge for a bounded time.
package devicetrust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/slogx"
)

var ErrNoUser = errors.New("devicetrust: user id is required")

// Store answers whether this browser is trusted for a user. The local Cache
// is only a hint: when Records is set, the server record must independently
// agree before trust is granted.
type Store struct {
	Cache Cache
	// Records validates local tokens. Nil disables server validation.
	Records store.Devices
	Signals Signals
	// TTL defaults to domain.DefaultDeviceTrustTTL.
	TTL    time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.DefaultDeviceTrustTTL
}

func (s *Store) log() *slog.Logger {
	return slogx.OrDiscard(s.Logger).With("component", "devicetrust")
}

// DeviceID prefers the id recorded in the cached token, so a browser whose
// signals drift keeps the id its server record was written under.
func (s *Store) DeviceID() string {
	if tok, err := s.Cache.Load(); err == nil && tok != nil && tok.DeviceID != "" {
		return tok.DeviceID
	}
	return ComputeDeviceID(s.Signals)
}

// StoreTrust marks this browser trusted for userID until now + TTL. The
// server record is written before the local cache, so a token is never
// visible locally without the record that validates it.
func (s *Store) StoreTrust(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}

	now := s.now()
	tok := domain.DeviceToken{
		UserID:    userID,
		DeviceID:  ComputeDeviceID(s.Signals),
		ExpiresAt: now.Add(s.ttl()),
	}

	if s.Records != nil {
		err := s.Records.UpsertDevice(ctx, domain.DeviceRecord{
			UserID:     tok.UserID,
			DeviceID:   tok.DeviceID,
			DeviceName: DeviceName(s.Signals.UserAgent),
			UserAgent:  s.Signals.UserAgent,
			CreatedAt:  now,
			ExpiresAt:  tok.ExpiresAt,
			LastUsedAt: &now,
		})
		if err != nil {
			return err
		}
	}
	return s.Cache.Save(tok)
}

// IsTrusted fails closed. Every negative answer also clears the token it
// judged, so the next call starts from nothing. A token saved meanwhile is
// kept.
func (s *Store) IsTrusted(ctx context.Context, userID string) bool {
	log := s.log().With("user_id", userID)

	tok, reason := s.check(ctx, userID)
	if reason == "" {
		return true
	}

	log.Debug("device not trusted", "reason", reason)
	var err error
	switch {
	case reason == "cache_error":
		err = s.Cache.Clear()
	case tok != nil:
		err = s.Cache.ClearIf(*tok)
	}
	if err != nil {
		log.Warn("clear device trust cache", "error", err)
	}
	return false
}

// check returns the token it evaluated and, when trust is refused, why.
func (s *Store) check(ctx context.Context, userID string) (*domain.DeviceToken, string) {
	log := s.log().With("user_id", userID)

	tok, err := s.Cache.Load()
	if err != nil {
		log.Warn("load device trust cache", "error", err)
		return nil, "cache_error"
	}
	if tok == nil {
		return nil, "no_token"
	}
	if userID == "" || tok.UserID != userID {
		return tok, "user_mismatch"
	}

	now := s.now()
	if tok.Expired(now) {
		return tok, "expired"
	}

	if s.Records == nil {
		return tok, ""
	}

	rec, err := s.Records.GetDevice(ctx, userID, tok.DeviceID)
	if errors.Is(err, store.ErrNotFound) {
		return tok, "no_server_record"
	}
	if err != nil {
		log.Warn("load device record", "error", err)
		return tok, "server_error"
	}
	if rec.Expired(now) {
		if err := s.Records.DeleteDevice(ctx, userID, tok.DeviceID); err != nil {
			log.Warn("delete expired device record", "error", err)
		}
		return tok, "server_record_expired"
	}

	if err := s.Records.TouchDevice(ctx, userID, tok.DeviceID, now); err != nil {
		log.Warn("touch device record", "error", err)
	}
	return tok, ""
}

// ClearTrust forgets the local token unconditionally, then revokes the
// server record it pointed at. A failed revoke is returned after the cache
// is already clear.
func (s *Store) ClearTrust(ctx context.Context) error {
	tok, loadErr := s.Cache.Load()
	if err := s.Cache.Clear(); err != nil {
		return err
	}
	if loadErr != nil || tok == nil || s.Records == nil {
		return nil
	}
	if err := s.Records.DeleteDevice(ctx, tok.UserID, tok.DeviceID); err != nil {
		return fmt.Errorf("devicetrust: revoke device record: %w", err)
	}
	return nil
}
