package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/memory"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StorageDriver = (*memory.Store)(nil)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStorageDriverContract(t, store)
}

func TestMemoryStore_GC(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()

	store.SetClock(func() time.Time { return now.Add(-time.Hour) })
	require.NoError(t, store.Write(ctx, "old", []byte("x")))
	store.SetClock(func() time.Time { return now })
	require.NoError(t, store.Write(ctx, "new", []byte("y")))

	n, err := store.GC(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestMemoryStore_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Write(ctx, "s", []byte("abc")))

	got, err := store.Read(ctx, "s")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := store.Read(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
