package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/invoicely/internal/authgw/store"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/drivers/sqlite"
	"github.com/aussiebroadwan/invoicely/internal/authgw/store/storetest"
)

func newMemoryStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestDevices(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "authgw.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations())
		return s
	}, storetest.Options{})
}

func TestApplyMigrationsTwice(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.ApplyMigrations())
}
