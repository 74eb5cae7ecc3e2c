package sql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/satchel/pkg/domain"
)

// Dialect selects the SQL engine behind the relational driver.
type Dialect string

const (
	// DialectSQLite uses SQLite through a pure Go driver.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres uses PostgreSQL.
	DialectPostgres Dialect = "postgres"
)

// DefaultTable is the table sessions are stored in.
const DefaultTable = "sessions"

// Config holds the connection parameters of the relational driver.
type Config struct {
	// Dialect is optional; it is inferred from DSN when empty.
	Dialect  string `mapstructure:"dialect"`
	DSN      string `mapstructure:"dsn"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Table    string `mapstructure:"table"`
}

// RequiredKeys are the mapping keys that must be present when the driver is built from configuration.
var RequiredKeys = []string{domain.KeyDSN, domain.KeyUsername, domain.KeyPassword}

// ResolveDialect returns the configured dialect, inferring it from the DSN when unset.
func (c *Config) ResolveDialect() (Dialect, error) {
	switch strings.ToLower(c.Dialect) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgsql":
		return DialectPostgres, nil
	case "":
	default:
		return "", domain.NewConfigError("sql.New", "dialect", fmt.Sprintf("unsupported dialect '%s'", c.Dialect))
	}

	dsn := strings.ToLower(c.DSN)
	switch {
	case strings.HasPrefix(dsn, "mysql:"):
		return "", domain.NewConfigError("sql.New", domain.KeyDSN, "mysql is not supported")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.HasPrefix(dsn, "pgsql:"), strings.Contains(dsn, "host="):
		return DialectPostgres, nil
	default:
		return DialectSQLite, nil
	}
}

// Validate checks the configuration before any connection is attempted.
// SQLite ignores credentials, so they are only mandatory for PostgreSQL.
func (c *Config) Validate() error {
	if c.DSN == "" {
		return domain.MissingKey("sql.New", domain.KeyDSN)
	}
	dialect, err := c.ResolveDialect()
	if err != nil {
		return err
	}
	if dialect == DialectPostgres {
		if c.Username == "" {
			return domain.MissingKey("sql.New", domain.KeyUsername)
		}
		if c.Password == "" {
			return domain.MissingKey("sql.New", domain.KeyPassword)
		}
	}
	return nil
}

// connString returns the DSN handed to the gorm dialector, with credentials applied.
func (c *Config) connString(dialect Dialect) string {
	switch dialect {
	case DialectSQLite:
		return strings.TrimPrefix(c.DSN, "sqlite:")
	case DialectPostgres:
		return postgresDSN(c.DSN, c.Username, c.Password)
	}
	return c.DSN
}

// postgresDSN merges credentials into URL or key=value style DSNs.
// Credentials already present in the DSN win.
func postgresDSN(dsn, user, password string) string {
	if u, err := url.Parse(dsn); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		if u.User == nil || u.User.Username() == "" {
			u.User = url.UserPassword(user, password)
		}
		return u.String()
	}

	// PDO style "pgsql:host=x;dbname=y".
	dsn = strings.TrimPrefix(dsn, "pgsql:")
	dsn = strings.ReplaceAll(dsn, ";", " ")

	if !strings.Contains(dsn, "user=") {
		dsn += " user=" + quoteValue(user)
	}
	if !strings.Contains(dsn, "password=") {
		dsn += " password=" + quoteValue(password)
	}
	return strings.TrimSpace(dsn)
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
