package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/service"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/sqlite"
)

func TestHousekeepingRunOnce(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	devices := db.Devices()
	require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{UserID: "u", DeviceID: "old", CreatedAt: now, ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, devices.UpsertDevice(ctx, domain.DeviceRecord{UserID: "u", DeviceID: "new", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	var after atomic.Int32
	hk := service.NewHousekeepingService(nil, time.Hour,
		service.Sweeper{Name: "broken", Sweep: func(context.Context) (int64, error) { return 0, errors.New("boom") }},
		service.DeviceSweeper(devices, func() time.Time { return now }),
		service.Sweeper{Name: "after", Sweep: func(context.Context) (int64, error) { after.Add(1); return 0, nil }},
	)
	hk.RunOnce(ctx)

	require.EqualValues(t, 1, after.Load(), "a failing sweeper does not stop the rest")

	_, err = devices.GetDevice(ctx, "u", "new")
	require.NoError(t, err)
	_, err = devices.GetDevice(ctx, "u", "old")
	require.Error(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	runs := make(chan struct{}, 4)
	hk := service.NewHousekeepingService(nil, 0, service.Sweeper{
		Name: "count",
		Sweep: func(context.Context) (int64, error) {
			runs <- struct{}{}
			return 1, nil
		},
	})
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("no sweep on start")
	}
	hk.Stop()
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	hk := service.NewHousekeepingService(nil, time.Minute)
	hk.Stop()
	hk.Start()
	hk.Stop()
	hk.Stop()
}
