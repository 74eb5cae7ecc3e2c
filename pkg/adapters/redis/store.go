package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aretw0/satchel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPort is the redis port used when none is configured.
const DefaultPort = 6379

// Config holds the mapping keys accepted by the redis driver.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Prefix   string `mapstructure:"prefix"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Timeout is the dial/read/write timeout in seconds; 0 keeps the client default.
	Timeout float64 `mapstructure:"timeout"`
	// TTL is the per-key expiry in seconds; 0 leaves eviction to the server.
	TTL int `mapstructure:"ttl"`
}

// Store implements ports.StorageDriver using Redis.
// Keys are the sanitized prefix concatenated with the session ID.
type Store struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

type Option func(*Store)

// WithTTL sets the expiration applied on every write.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix. Anything but letters and '_' is dropped and the rest is uppercased.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = domain.NormalizePrefix(prefix, domain.LettersAndUnderscore)
	}
}

// New creates a new Redis store from connection parameters.
func New(cfg Config, opts ...Option) *Store {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	options := &backend.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.Timeout > 0 {
		timeout := time.Duration(cfg.Timeout * float64(time.Second))
		options.DialTimeout = timeout
		options.ReadTimeout = timeout
		options.WriteTimeout = timeout
	}

	base := []Option{WithPrefix(cfg.Prefix), WithTTL(time.Duration(cfg.TTL) * time.Second)}
	store := NewFromClient(backend.NewClient(options), append(base, opts...)...)
	store.owned = true
	return store
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: domain.DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Prefix returns the normalized key prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Setup is a no-op: redis needs no provisioning.
func (s *Store) Setup(ctx context.Context) error { return nil }

func (s *Store) Open(ctx context.Context, savePath, name string) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Read retrieves the payload from Redis. A missing key yields an empty payload.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Write stores the payload, applying the TTL when one is configured.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Destroy removes the key.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// GC is a no-op: redis expires keys on its own.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	return 0, nil
}

// List returns active sessions by scanning keys under the prefix.
//
// Keys are the prefix immediately followed by the ID, so a store whose prefix
// starts with this one (APP vs APPLE) shares the key space: its sessions are
// listed here too, with the remainder of its prefix in front of the ID. Give
// applications sharing a server prefixes where neither extends the other.
func (s *Store) List(ctx context.Context) ([]string, error) {
	sessions := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		sessions = append(sessions, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Shutdown closes the redis client if this Store created it.
func (s *Store) Shutdown() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
