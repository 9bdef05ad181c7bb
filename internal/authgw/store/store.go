package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres, redis) implement it and expose sub-repositories so callers only
// see the concern they need.
type Store interface {
	Devices() Devices

	// ApplyMigrations brings the schema up to date. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Ping verifies the backing connection is still alive.
	Ping(ctx context.Context) error

	Close() error
}

// Devices holds the authoritative per-user, per-device trust records.
type Devices interface {
	// UpsertDevice inserts the record or, when (UserID, DeviceID) already
	// exists, replaces its name, user agent, expiry and last use. The
	// original ID and CreatedAt survive an update. An empty ID is filled in.
	UpsertDevice(ctx context.Context, r domain.DeviceRecord) error

	// GetDevice returns ErrNotFound when no record exists. Expired records
	// may still be returned; callers check ExpiresAt.
	GetDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error)

	// TouchDevice bumps last_used_at.
	TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error

	// DeleteDevice is idempotent.
	DeleteDevice(ctx context.Context, userID, deviceID string) error

	// DeleteExpiredDevices removes every record that expired before cutoff
	// and reports how many went.
	DeleteExpiredDevices(ctx context.Context, cutoff time.Time) (int64, error)
}
