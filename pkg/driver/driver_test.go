package driver_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/satchel/pkg/adapters/file"
	memcachestore "github.com/aretw0/satchel/pkg/adapters/memcache"
	"github.com/aretw0/satchel/pkg/adapters/memory"
	redisstore "github.com/aretw0/satchel/pkg/adapters/redis"
	sqlstore "github.com/aretw0/satchel/pkg/adapters/sql"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/driver"
	gomemcache "github.com/bradfitz/gomemcache/memcache"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolve_Discriminator(t *testing.T) {
	tests := []struct {
		cfg  any
		want domain.DriverKind
	}{
		{nil, domain.DriverFile},
		{driver.Config{}, domain.DriverFile},
		{driver.Config{"driver": "file"}, domain.DriverFile},
		{driver.Config{"driver": "PDO"}, domain.DriverRelational},
		{driver.Config{"driver": "relational"}, domain.DriverRelational},
		{driver.Config{"Driver": "memcached"}, domain.DriverMemcache},
		{map[string]string{"driver": "redis"}, domain.DriverRedis},
	}
	for _, tt := range tests {
		got, err := driver.Resolve(tt.cfg)
		require.NoError(t, err, "%v", tt.cfg)
		assert.Equal(t, tt.want, got, "%v", tt.cfg)
	}
}

func TestResolve_Handles(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "s.db")), &gorm.Config{})
	require.NoError(t, err)
	fs, err := file.New(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  any
		want domain.DriverKind
	}{
		{"gorm", db, domain.DriverRelational},
		{"redis client", goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"}), domain.DriverRedis},
		{"redis cluster", goredis.NewClusterClient(&goredis.ClusterOptions{Addrs: []string{"127.0.0.1:0"}}), domain.DriverRedis},
		{"memcache client", gomemcache.New("127.0.0.1:0"), domain.DriverMemcache},
		{"file store", fs, domain.DriverFile},
		{"sql store", sqlstore.NewFromDB(db), domain.DriverRelational},
		{"memcache store", memcachestore.New(memcachestore.Config{}), domain.DriverMemcache},
		{"redis store", redisstore.New(redisstore.Config{}), domain.DriverRedis},
		{"memory store", memory.NewStore(), domain.DriverMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := driver.Resolve(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  any
	}{
		{"unknown discriminator", driver.Config{"driver": "mongodb"}},
		{"non-string discriminator", driver.Config{"driver": 42}},
		{"unsupported handle", struct{}{}},
		{"string", "file"},
		{"pointer to unrelated type", &time.Time{}},
		{"memory discriminator", driver.Config{"driver": "memory"}},
		{"nil gorm handle", (*gorm.DB)(nil)},
		{"nil redis client", (*goredis.Client)(nil)},
		{"nil memcache client", (*gomemcache.Client)(nil)},
		{"nil file store", (*file.Store)(nil)},
		{"nil sql store", (*sqlstore.Store)(nil)},
		{"nil memcache store", (*memcachestore.Store)(nil)},
		{"nil redis store", (*redisstore.Store)(nil)},
		{"nil memory store", (*memory.Store)(nil)},
		{"nil mapping pointer", (*map[string]any)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := driver.Resolve(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			d, kind, err := driver.New(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Nil(t, d)
			assert.Empty(t, kind)
		})
	}
}

func TestNew_MemoryHandle(t *testing.T) {
	store := memory.NewStore()

	d, kind, err := driver.New(store)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverMemory, kind)
	assert.Same(t, store, d)
}

func TestNew_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sess")

	d, kind, err := driver.New(driver.Config{"driver": "file", "path": dir, "prefix": "app"})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverFile, kind)

	fs, ok := d.(*file.Store)
	require.True(t, ok)
	assert.Equal(t, dir, fs.BasePath)
	assert.Equal(t, "APP", fs.Prefix())
	assert.DirExists(t, dir)
}

func TestNew_FileWithClock(t *testing.T) {
	future := time.Now().Add(time.Hour)
	d, _, err := driver.New(driver.Config{"path": t.TempDir()}, driver.WithClock(func() time.Time { return future }))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Write(ctx, "s", []byte("x")))
	n, err := d.GC(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_RelationalRequiresKeys(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "s.db")

	for _, missing := range []string{"dsn", "username", "password"} {
		cfg := driver.Config{"driver": "relational", "dsn": dsn, "username": "u", "password": "p"}
		delete(cfg, missing)

		_, _, err := driver.New(cfg)
		require.ErrorIs(t, err, domain.ErrConfiguration, missing)

		var cfgErr *domain.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, missing, cfgErr.Key)
	}
}

func TestNew_Relational(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "s.db")
	d, kind, err := driver.New(driver.Config{"driver": "pdo", "dsn": dsn, "username": "", "password": ""})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverRelational, kind)

	store := d.(*sqlstore.Store)
	t.Cleanup(func() { _ = store.Shutdown() })

	ctx := context.Background()
	require.NoError(t, d.Setup(ctx))
	require.NoError(t, d.Write(ctx, "s1", []byte("x")))
	got, err := d.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestNew_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	d, kind, err := driver.New(driver.Config{
		"driver": "redis",
		"host":   mr.Host(),
		"port":   mr.Port(), // string, weakly typed into int
		"prefix": "shop",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverRedis, kind)
	t.Cleanup(func() { _ = d.(*redisstore.Store).Shutdown() })

	require.NoError(t, d.Write(context.Background(), "abc", []byte("v")))
	assert.True(t, mr.Exists("SHOPabc"))
}

func TestNew_RedisHandle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	d, kind, err := driver.New(client)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverRedis, kind)

	require.NoError(t, d.Write(context.Background(), "abc", []byte("v")))
	assert.True(t, mr.Exists("SATCHELabc"))
}

func TestNew_Memcache(t *testing.T) {
	d, kind, err := driver.New(driver.Config{"driver": "memcached", "host": "cache", "port": 11212, "prefix": "a-b"})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverMemcache, kind)
	assert.Equal(t, "AB", d.(*memcachestore.Store).Prefix())
}

func TestNew_PrebuiltBackendIsReused(t *testing.T) {
	fs, err := file.New(t.TempDir())
	require.NoError(t, err)

	d, kind, err := driver.New(fs)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverFile, kind)
	assert.Same(t, fs, d)
}
