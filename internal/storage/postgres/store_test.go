package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnwatch/internal/storage"
)

// Runs only against a disposable database: WATCHER_TEST_PG_DSN=postgres://...
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("WATCHER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("WATCHER_TEST_PG_DSN not set")
	}
	store, err := NewStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreCheckpointLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	contract := fmt.Sprintf("0xtest%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = store.pool.Exec(context.Background(), `DELETE FROM block_heights WHERE contract=$1`, contract)
	})

	require.ErrorIs(t, store.Set(ctx, contract, 1), storage.ErrNoCheckpoint)

	require.NoError(t, store.EnsureSeeded(ctx, 9, contract, 100))
	require.NoError(t, store.EnsureSeeded(ctx, 9, contract, 500))

	height, ok, err := store.Get(ctx, 9, contract)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), height)

	require.NoError(t, store.Set(ctx, contract, 150))
	height, _, err = store.Get(ctx, 9, contract)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), height)
}
