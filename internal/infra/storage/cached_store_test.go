package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"school_points_bot/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps the file store to count inner loads.
type countingStore struct {
	ledger.Store
	loads int
}

func (c *countingStore) Load(ctx context.Context) (*ledger.State, error) {
	c.loads++
	return c.Store.Load(ctx)
}

func TestCachedStore_ServesRepeatLoadsFromCache(t *testing.T) {
	inner := &countingStore{Store: NewJSONFileStore(filepath.Join(t.TempDir(), "data.json"), testLogger())}
	require.NoError(t, inner.Store.Save(context.Background(), ledger.NewState()))
	cached := NewCachedStore(inner, time.Minute)

	_, err := cached.Load(context.Background())
	require.NoError(t, err)
	_, err = cached.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.loads)
}

func TestCachedStore_UpdateInvalidates(t *testing.T) {
	inner := &countingStore{Store: NewJSONFileStore(filepath.Join(t.TempDir(), "data.json"), testLogger())}
	require.NoError(t, inner.Store.Save(context.Background(), ledger.NewState()))
	cached := NewCachedStore(inner, time.Minute)

	_, err := cached.Load(context.Background())
	require.NoError(t, err)

	err = cached.Update(context.Background(), func(st *ledger.State) error {
		st.Admins = append(st.Admins, "42")
		return nil
	})
	require.NoError(t, err)

	st, err := cached.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsAdmin("42"), "post-update load sees the write")
	assert.Equal(t, 2, inner.loads)
}
