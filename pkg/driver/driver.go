// Package driver selects and constructs the storage backend for a session manager.
//
// Selection is a closed set (domain.DriverKind). It is resolved either from the
// "driver" key of a configuration mapping or from the concrete type of a ready
// client handle. Anything else is rejected with a domain.ConfigError; there is
// no silent fallback for unknown input.
package driver

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/decode"
	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/adapters/file"
	memcachestore "github.com/aretw0/satchel/pkg/adapters/memcache"
	"github.com/aretw0/satchel/pkg/adapters/memory"
	redisstore "github.com/aretw0/satchel/pkg/adapters/redis"
	sqlstore "github.com/aretw0/satchel/pkg/adapters/sql"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/ports"
	gomemcache "github.com/bradfitz/gomemcache/memcache"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Config is a driver configuration mapping, e.g.
//
//	driver.Config{"driver": "relational", "dsn": "sessions.db", "username": "app", "password": "secret"}
type Config = map[string]any

type settings struct {
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures how backends are constructed.
type Option func(*settings)

// WithLogger passes a logger to backends that report non-fatal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithClock overrides the time source of backends that stamp records (file, relational).
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.clock = now
	}
}

// Resolve determines the backend kind for cfg without constructing anything.
//
// cfg may be nil (file driver with defaults), a mapping with an optional
// "driver" discriminator (default "file"), a *gorm.DB, a go-redis client, a
// *memcache.Client, or an already-built backend from pkg/adapters.
// A memory store is accepted as a handle only. Typed nil handles are rejected.
func Resolve(cfg any) (domain.DriverKind, error) {
	if cfg != nil && isNilPointer(cfg) {
		return "", domain.NewConfigError("driver.Resolve", "",
			fmt.Sprintf("session manager initiate failed: nil handle '%T'", cfg))
	}

	switch h := cfg.(type) {
	case nil:
		return domain.DriverFile, nil
	case *memory.Store:
		return domain.DriverMemory, nil
	case *file.Store:
		return domain.DriverFile, nil
	case *sqlstore.Store, *gorm.DB:
		return domain.DriverRelational, nil
	case *memcachestore.Store, *gomemcache.Client:
		return domain.DriverMemcache, nil
	case *redisstore.Store, goredis.UniversalClient:
		return domain.DriverRedis, nil
	default:
		m, ok := decode.Normalize(h)
		if !ok {
			return "", domain.NewConfigError("driver.Resolve", "",
				fmt.Sprintf("session manager initiate failed: unsupported object '%T'", cfg))
		}
		raw, ok := decode.Get(m, domain.KeyDriver)
		if !ok || raw == nil {
			return domain.DriverFile, nil
		}
		name, ok := raw.(string)
		if !ok {
			return "", domain.NewConfigError("driver.Resolve", domain.KeyDriver,
				fmt.Sprintf("expected a string, got %T", raw))
		}
		return domain.ParseDriverKind(name)
	}
}

// New resolves cfg and constructs the matching backend.
// On error nothing has been connected or created.
func New(cfg any, opts ...Option) (ports.StorageDriver, domain.DriverKind, error) {
	s := &settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	kind, err := Resolve(cfg)
	if err != nil {
		return nil, "", err
	}

	var d ports.StorageDriver
	switch h := cfg.(type) {
	case *memory.Store:
		d = h
	case *file.Store:
		d = h
	case *sqlstore.Store:
		d = h
	case *memcachestore.Store:
		d = h
	case *redisstore.Store:
		d = h
	case *gorm.DB:
		d = sqlstore.NewFromDB(h, s.sqlOptions()...)
	case *gomemcache.Client:
		d = memcachestore.NewFromClient(h)
	case goredis.UniversalClient:
		d = redisstore.NewFromClient(h)
	default:
		m, _ := decode.Normalize(cfg)
		d, err = fromMapping(kind, decode.Without(m, domain.KeyDriver), s)
		if err != nil {
			return nil, "", err
		}
	}
	return d, kind, nil
}

func fromMapping(kind domain.DriverKind, m map[string]any, s *settings) (ports.StorageDriver, error) {
	op := "driver." + kind.String()

	switch kind {
	case domain.DriverFile:
		var cfg file.Config
		if err := decode.Into(op, m, &cfg, false); err != nil {
			return nil, err
		}
		fileOpts := []file.Option{file.WithLogger(s.logger)}
		if s.clock != nil {
			fileOpts = append(fileOpts, file.WithClock(s.clock))
		}
		return file.NewFromConfig(cfg, fileOpts...)

	case domain.DriverRelational:
		for _, key := range sqlstore.RequiredKeys {
			if !decode.Has(m, key) {
				return nil, domain.MissingKey(op, key)
			}
		}
		var cfg sqlstore.Config
		if err := decode.Into(op, m, &cfg, false); err != nil {
			return nil, err
		}
		return sqlstore.New(cfg, s.sqlOptions()...)

	case domain.DriverMemcache:
		var cfg memcachestore.Config
		if err := decode.Into(op, m, &cfg, false); err != nil {
			return nil, err
		}
		return memcachestore.New(cfg), nil

	case domain.DriverRedis:
		var cfg redisstore.Config
		if err := decode.Into(op, m, &cfg, false); err != nil {
			return nil, err
		}
		return redisstore.New(cfg), nil
	}

	return nil, domain.NewConfigError(op, domain.KeyDriver, "unsupported session driver '"+strings.ToLower(kind.String())+"'")
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (s *settings) sqlOptions() []sqlstore.Option {
	if s.clock == nil {
		return nil
	}
	return []sqlstore.Option{sqlstore.WithClock(s.clock)}
}
