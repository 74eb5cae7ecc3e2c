package memcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/memcache"
	"github.com/aretw0/satchel/pkg/ports"
	backend "github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StorageDriver = (*memcache.Store)(nil)

// fakeClient is an in-memory stand-in for a memcached server.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]*backend.Item
	err   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]*backend.Item)}
}

func (f *fakeClient) Get(key string) (*backend.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[key]
	if !ok {
		return nil, backend.ErrCacheMiss
	}
	cp := *item
	cp.Value = append([]byte(nil), item.Value...)
	return &cp, nil
}

func (f *fakeClient) Set(item *backend.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *item
	cp.Value = append([]byte(nil), item.Value...)
	f.items[item.Key] = &cp
	return nil
}

func (f *fakeClient) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[key]; !ok {
		return backend.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

func TestMemcacheStore_Contract(t *testing.T) {
	store := memcache.NewFromClient(newFakeClient())
	ports.RunStorageDriverContract(t, store)
}

func TestMemcacheStore_PrefixNamespace(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()

	store := memcache.NewFromClient(client, memcache.WithPrefix("shop-2024_sess"))
	assert.Equal(t, "SHOP_SESS", store.Prefix())

	require.NoError(t, store.Write(ctx, "abc", []byte("payload")))
	item, ok := client.items["SHOP_SESSabc"]
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), item.Value)
	assert.Equal(t, int32(0), item.Expiration, "no expiry unless configured")
}

func TestMemcacheStore_GCIsNoop(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()
	store := memcache.NewFromClient(client)

	require.NoError(t, store.Write(ctx, "live", []byte("x")))

	n, err := store.GC(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, client.items, "SATCHELlive")
}

func TestMemcacheStore_TTL(t *testing.T) {
	client := newFakeClient()
	ctx := context.Background()

	store := memcache.NewFromClient(client, memcache.WithTTL(24*time.Minute))
	require.NoError(t, store.Write(ctx, "s", []byte("x")))
	assert.Equal(t, int32(1440), client.items["SATCHELs"].Expiration)

	long := memcache.NewFromClient(client, memcache.WithTTL(60*24*time.Hour))
	require.NoError(t, long.Write(ctx, "l", []byte("x")))
	assert.Greater(t, client.items["SATCHELl"].Expiration, int32(time.Now().Unix()),
		"expiries beyond 30 days are sent as absolute timestamps")
}

func TestMemcacheStore_BackendErrorPropagates(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("connection refused")
	store := memcache.NewFromClient(client)
	ctx := context.Background()

	_, err := store.Read(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, store.Write(ctx, "x", []byte("y")))
	assert.Error(t, store.Destroy(ctx, "x"))
}

func TestMemcacheStore_New(t *testing.T) {
	store := memcache.New(memcache.Config{Prefix: "app!", Timeout: 0.5})
	assert.Equal(t, "APP", store.Prefix())
}
