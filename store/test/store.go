package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seminote/seminote/internal/profile"
	"github.com/seminote/seminote/store"
	"github.com/seminote/seminote/store/db"
)

// NewTestingStore creates a SQLite-backed store in a temp directory with the
// schema applied.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
	}
	require.NoError(t, p.Validate())

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	ts := store.New(driver, p)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, ts.Close())
	})
	return ts
}
