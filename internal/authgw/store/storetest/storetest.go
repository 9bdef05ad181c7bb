// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
)

// Options describes driver quirks the suite has to know about.
type Options struct {
	// ExpiresNatively is set for drivers that drop records on their own once
	// they expire. DeleteExpiredDevices is then allowed to report zero.
	ExpiresNatively bool
}

// Base is the reference time records are stamped with. Drivers with their
// own clock should be pinned to it.
var Base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises the Devices repository of a fresh store. newStore is called
// once per subtest and must return a store with migrations applied.
func Run(t *testing.T, newStore func(t *testing.T) store.Store, opts Options) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Devices().GetDevice(context.Background(), "nobody", "nothing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("upsert inserts then updates", func(t *testing.T) {
		ctx := context.Background()
		devices := newStore(t).Devices()

		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "dev-1", DeviceName: "Firefox on Linux", UserAgent: "Mozilla/5.0",
			CreatedAt: Base, ExpiresAt: Base.Add(domain.DefaultDeviceTrustTTL),
		}))

		first, err := devices.GetDevice(ctx, "user-1", "dev-1")
		require.NoError(t, err)
		require.NotEmpty(t, first.ID)
		require.Equal(t, "Firefox on Linux", first.DeviceName)
		require.Equal(t, "Mozilla/5.0", first.UserAgent)
		require.True(t, first.CreatedAt.Equal(Base))
		require.True(t, first.ExpiresAt.Equal(Base.Add(domain.DefaultDeviceTrustTTL)))
		require.Nil(t, first.LastUsedAt)

		later := Base.Add(time.Hour)
		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "dev-1", DeviceName: "Firefox 2", UserAgent: "Mozilla/6.0",
			CreatedAt: later, ExpiresAt: later.Add(domain.DefaultDeviceTrustTTL), LastUsedAt: &later,
		}))

		second, err := devices.GetDevice(ctx, "user-1", "dev-1")
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.True(t, second.CreatedAt.Equal(Base))
		require.Equal(t, "Firefox 2", second.DeviceName)
		require.True(t, second.ExpiresAt.Equal(later.Add(domain.DefaultDeviceTrustTTL)))
		require.NotNil(t, second.LastUsedAt)
		require.True(t, second.LastUsedAt.Equal(later))
	})

	t.Run("records are keyed by user and device", func(t *testing.T) {
		ctx := context.Background()
		devices := newStore(t).Devices()
		exp := Base.Add(domain.DefaultDeviceTrustTTL)

		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{UserID: "user-1", DeviceID: "dev-1", CreatedAt: Base, ExpiresAt: exp}))
		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{UserID: "user-2", DeviceID: "dev-1", CreatedAt: Base, ExpiresAt: exp}))

		a, err := devices.GetDevice(ctx, "user-1", "dev-1")
		require.NoError(t, err)
		b, err := devices.GetDevice(ctx, "user-2", "dev-1")
		require.NoError(t, err)
		require.NotEqual(t, a.ID, b.ID)

		_, err = devices.GetDevice(ctx, "user-1", "dev-2")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("touch", func(t *testing.T) {
		ctx := context.Background()
		devices := newStore(t).Devices()

		require.ErrorIs(t, devices.TouchDevice(ctx, "user-1", "dev-1", Base), store.ErrNotFound)

		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "dev-1", CreatedAt: Base, ExpiresAt: Base.Add(domain.DefaultDeviceTrustTTL),
		}))

		used := Base.Add(3 * time.Hour)
		require.NoError(t, devices.TouchDevice(ctx, "user-1", "dev-1", used))

		got, err := devices.GetDevice(ctx, "user-1", "dev-1")
		require.NoError(t, err)
		require.NotNil(t, got.LastUsedAt)
		require.True(t, got.LastUsedAt.Equal(used))
		require.True(t, got.ExpiresAt.Equal(Base.Add(domain.DefaultDeviceTrustTTL)))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		ctx := context.Background()
		devices := newStore(t).Devices()

		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "dev-1", CreatedAt: Base, ExpiresAt: Base.Add(domain.DefaultDeviceTrustTTL),
		}))
		require.NoError(t, devices.DeleteDevice(ctx, "user-1", "dev-1"))
		require.NoError(t, devices.DeleteDevice(ctx, "user-1", "dev-1"))

		_, err := devices.GetDevice(ctx, "user-1", "dev-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := context.Background()
		devices := newStore(t).Devices()

		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "stale", CreatedAt: Base, ExpiresAt: Base.Add(time.Hour),
		}))
		require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{
			UserID: "user-1", DeviceID: "fresh", CreatedAt: Base, ExpiresAt: Base.Add(domain.DefaultDeviceTrustTTL),
		}))

		n, err := devices.DeleteExpiredDevices(ctx, Base.Add(2*time.Hour))
		require.NoError(t, err)
		if !opts.ExpiresNatively {
			require.EqualValues(t, 1, n)
			_, err = devices.GetDevice(ctx, "user-1", "stale")
			require.ErrorIs(t, err, store.ErrNotFound)
		}

		_, err = devices.GetDevice(ctx, "user-1", "fresh")
		require.NoError(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(context.Background()))
	})
}
