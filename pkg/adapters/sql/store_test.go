package sql_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/satchel/pkg/adapters/sql"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ ports.StorageDriver = (*sql.Store)(nil)

func newSQLite(t *testing.T, opts ...sql.Option) *sql.Store {
	t.Helper()
	store, err := sql.New(sql.Config{DSN: filepath.Join(t.TempDir(), "sessions.db")}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Shutdown() })
	require.NoError(t, store.Setup(context.Background()))
	return store
}

func countRows(t *testing.T, store *sql.Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB().Table(store.Table()).Count(&n).Error)
	return n
}

func TestSQLStore_Contract(t *testing.T) {
	ports.RunStorageDriverContract(t, newSQLite(t))
}

func TestSQLStore_Upsert(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "s1", []byte("x")))
	require.NoError(t, store.Write(ctx, "s1", []byte("y")))

	got, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "y", string(got))
	assert.Equal(t, int64(1), countRows(t, store), "upsert must keep a single row")
}

func TestSQLStore_WriteStampsTimestamp(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newSQLite(t, sql.WithClock(func() time.Time { return at }))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "s1", []byte("x")))

	var rec sql.Record
	require.NoError(t, store.DB().Table(store.Table()).Where("id = ?", "s1").Take(&rec).Error)
	assert.Equal(t, at.Unix(), rec.Timestamp)
}

func TestSQLStore_GC(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := now
	store := newSQLite(t, sql.WithClock(func() time.Time { return clock }))

	maxLifetime := 30 * time.Minute

	clock = now.Add(-2 * time.Hour)
	for _, id := range []string{"old1", "old2", "old3", "old4"} {
		require.NoError(t, store.Write(ctx, id, []byte(id)))
	}
	clock = now
	for _, id := range []string{"new1", "new2"} {
		require.NoError(t, store.Write(ctx, id, []byte(id)))
	}

	n, err := store.GC(ctx, maxLifetime)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(2), countRows(t, store))

	n, err = store.GC(ctx, maxLifetime)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second sweep has nothing left to collect")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new1", "new2"}, ids)
}

func TestSQLStore_SetupIsIdempotent(t *testing.T) {
	store := newSQLite(t, sql.WithTable("app_sessions"))
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "keep", []byte("me")))
	require.NoError(t, store.Setup(ctx))

	got, err := store.Read(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "me", string(got), "Setup must not drop existing rows")
	assert.True(t, store.DB().Migrator().HasTable("app_sessions"))
}

func TestSQLStore_SetupLeavesExistingTable(t *testing.T) {
	store, err := sql.New(sql.Config{DSN: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Shutdown() })
	ctx := context.Background()

	require.NoError(t, store.DB().Exec(
		"CREATE TABLE sessions (id VARCHAR(128) PRIMARY KEY, data BLOB, timestamp INTEGER, owner TEXT)").Error)
	require.NoError(t, store.DB().Exec(
		"INSERT INTO sessions (id, data, timestamp, owner) VALUES ('s1', 'x', 1, 'legacy')").Error)

	require.NoError(t, store.Setup(ctx))

	cols, err := store.DB().Migrator().ColumnTypes("sessions")
	require.NoError(t, err)
	var names []string
	for _, c := range cols {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"id", "data", "timestamp", "owner"}, names)

	var owner string
	require.NoError(t, store.DB().Raw("SELECT owner FROM sessions WHERE id = 's1'").Scan(&owner).Error)
	assert.Equal(t, "legacy", owner)

	got, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestSQLStore_NewFromDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "x.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := sql.NewFromDB(db)
	require.NoError(t, store.Setup(context.Background()))
	require.NoError(t, store.Shutdown(), "caller-owned handles are left open")

	require.NoError(t, store.Write(context.Background(), "a", []byte("b")))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     sql.Config
		wantKey string
	}{
		{"missing dsn", sql.Config{Username: "u", Password: "p"}, "dsn"},
		{"postgres missing username", sql.Config{DSN: "postgres://db:5432/app", Password: "p"}, "username"},
		{"postgres missing password", sql.Config{DSN: "host=db dbname=app", Username: "u"}, "password"},
		{"unsupported dialect", sql.Config{DSN: "x", Dialect: "oracle"}, "dialect"},
		{"mysql dsn", sql.Config{DSN: "mysql:host=x", Username: "u", Password: "p"}, "dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)

			var cfgErr *domain.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}

	ok := sql.Config{DSN: "sessions.db"}
	assert.NoError(t, ok.Validate(), "sqlite does not need credentials")
}

func TestNew_FailsBeforeConnecting(t *testing.T) {
	// An unreachable host would hang or fail late; validation must reject first.
	_, err := sql.New(sql.Config{DSN: "postgres://10.255.255.1:5432/app", Username: "u"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestConfig_ResolveDialect(t *testing.T) {
	tests := map[string]sql.Dialect{
		"postgres://h/db":        sql.DialectPostgres,
		"postgresql://h/db":      sql.DialectPostgres,
		"host=h dbname=db":       sql.DialectPostgres,
		"pgsql:host=h;dbname=db": sql.DialectPostgres,
		"sqlite:/var/lib/s.db":   sql.DialectSQLite,
		"/var/lib/s.db":          sql.DialectSQLite,
		"file:s.db?cache=shared": sql.DialectSQLite,
	}
	for dsn, want := range tests {
		cfg := sql.Config{DSN: dsn}
		got, err := cfg.ResolveDialect()
		require.NoError(t, err, dsn)
		assert.Equal(t, want, got, dsn)
	}
}
