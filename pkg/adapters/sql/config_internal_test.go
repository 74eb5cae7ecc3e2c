package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresDSN(t *testing.T) {
	assert.Equal(t, "postgres://app:s3cret@db:5432/sessions",
		postgresDSN("postgres://db:5432/sessions", "app", "s3cret"))

	assert.Equal(t, "postgres://owner:pw@db/sessions",
		postgresDSN("postgres://owner:pw@db/sessions", "app", "s3cret"), "DSN credentials win")

	assert.Equal(t, `host=db dbname=sessions user=app password='it\'s'`,
		postgresDSN("pgsql:host=db;dbname=sessions", "app", "it's"))
}

func TestConnString_SQLiteStripsScheme(t *testing.T) {
	cfg := Config{DSN: "sqlite:/tmp/s.db"}
	assert.Equal(t, "/tmp/s.db", cfg.connString(DialectSQLite))
}
