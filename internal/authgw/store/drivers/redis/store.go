// Package redis keeps device records as JSON values whose key TTL tracks the
// record's expiry, so Redis drops expired trust on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/pkg/idx"
)

const DefaultPrefix = "authgw:device:"

type Options struct {
	// Prefix namespaces every key. Defaults to DefaultPrefix.
	Prefix string
	// Now is used to turn ExpiresAt into a TTL.
	Now func() time.Time
}

type Store struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open parses a redis:// URL and connects.
func Open(ctx context.Context, rawURL string, opts Options) (*Store, error) {
	o, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := redis.NewClient(o)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(rdb, opts), nil
}

// New wraps an existing client. Close closes it.
func New(rdb *redis.Client, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{rdb: rdb, prefix: opts.Prefix, now: opts.Now}
}

func (s *Store) Devices() store.Devices { return s }

// ApplyMigrations is a no-op; there is no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }

type record struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	DeviceID   string     `json:"device_id"`
	DeviceName string     `json:"device_name"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func (s *Store) key(userID, deviceID string) string {
	return s.prefix + userID + ":" + deviceID
}

func (s *Store) load(ctx context.Context, key string) (record, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return record{}, store.ErrNotFound
	}
	if err != nil {
		return record{}, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *Store) UpsertDevice(ctx context.Context, d domain.DeviceRecord) error {
	key := s.key(d.UserID, d.DeviceID)

	ttl := d.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.rdb.Del(ctx, key).Err()
	}

	existing, err := s.load(ctx, key)
	switch {
	case err == nil:
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		if d.ID == "" {
			d.ID = idx.NewAt(d.CreatedAt).String()
		}
	default:
		return err
	}

	raw, err := json.Marshal(record(d))
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, ttl).Err()
}

func (s *Store) GetDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error) {
	rec, err := s.load(ctx, s.key(userID, deviceID))
	if err != nil {
		return domain.DeviceRecord{}, err
	}
	return domain.DeviceRecord(rec), nil
}

func (s *Store) TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error {
	key := s.key(userID, deviceID)
	rec, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	rec.LastUsedAt = &at
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// SET with KEEPTTL leaves the expiry set by UpsertDevice alone.
	return s.rdb.SetArgs(ctx, key, raw, redis.SetArgs{KeepTTL: true, Mode: "XX"}).Err()
}

func (s *Store) DeleteDevice(ctx context.Context, userID, deviceID string) error {
	return s.rdb.Del(ctx, s.key(userID, deviceID)).Err()
}

// DeleteExpiredDevices reports zero; key TTLs already removed them.
func (s *Store) DeleteExpiredDevices(context.Context, time.Time) (int64, error) {
	return 0, nil
}
