package authgw_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/domain"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/postgres"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/redis"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/storetest"
)

func TestPostgresDevices(t *testing.T) {
	dsn, cleanup := setupPostgres(t)
	defer cleanup()

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		ctx := context.Background()

		s, err := postgres.NewStore(ctx, postgres.Config{DSN: dsn})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations())

		conn, err := pgx.Connect(ctx, dsn)
		require.NoError(t, err)
		defer conn.Close(ctx)
		_, err = conn.Exec(ctx, "TRUNCATE user_devices")
		require.NoError(t, err)

		return s
	}, storetest.Options{})
}

func TestPostgresMigrationsAreIdempotent(t *testing.T) {
	dsn, cleanup := setupPostgres(t)
	defer cleanup()

	s, err := postgres.NewStore(context.Background(), postgres.Config{DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestRedisDevices(t *testing.T) {
	url, cleanup := setupRedis(t)
	defer cleanup()

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		s, err := redis.Open(context.Background(), url, redis.Options{
			Prefix: "authgw-e2e:" + uuid.NewString() + ":",
			Now:    func() time.Time { return storetest.Base },
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}, storetest.Options{ExpiresNatively: true})
}

func TestRedisRecordExpires(t *testing.T) {
	url, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	s, err := redis.Open(ctx, url, redis.Options{
		Prefix: "authgw-e2e:" + uuid.NewString() + ":",
		Now:    time.Now,
	})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	require.NoError(t, s.Devices().UpsertDevice(ctx, domain.DeviceRecord{
		UserID: "user-1", DeviceID: "dev-1", CreatedAt: now, ExpiresAt: now.Add(time.Second),
	}))

	_, err = s.Devices().GetDevice(ctx, "user-1", "dev-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := s.Devices().GetDevice(ctx, "user-1", "dev-1")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)

	_, err = s.Devices().GetDevice(ctx, "user-1", "dev-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
