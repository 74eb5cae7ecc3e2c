package memcache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aretw0/satchel/pkg/domain"
	backend "github.com/bradfitz/gomemcache/memcache"
)

// DefaultPort is the memcached port used when none is configured.
const DefaultPort = 11211

// maxRelativeExpiry is the largest expiry memcached treats as relative seconds;
// larger values are read as absolute unix timestamps.
const maxRelativeExpiry = 30 * 24 * time.Hour

// Config holds the mapping keys accepted by the memcache driver.
type Config struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Prefix string `mapstructure:"prefix"`
	// Timeout is the socket timeout in seconds; 0 keeps the client default.
	Timeout float64 `mapstructure:"timeout"`
	// TTL is the per-key expiry in seconds; 0 leaves eviction to the server.
	TTL int `mapstructure:"ttl"`
	// Password is accepted for symmetry with the redis driver; the text protocol has no auth.
	Password string `mapstructure:"password"`
}

// Client is the subset of *memcache.Client the store needs.
type Client interface {
	Get(key string) (*backend.Item, error)
	Set(item *backend.Item) error
	Delete(key string) error
}

var _ Client = (*backend.Client)(nil)

// Store implements ports.StorageDriver using memcached.
// Keys are the sanitized prefix concatenated with the session ID.
type Store struct {
	client Client
	prefix string
	ttl    time.Duration
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

// New creates a new memcached store from connection parameters.
func New(cfg Config, opts ...Option) *Store {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	client := backend.New(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if cfg.Timeout > 0 {
		client.Timeout = time.Duration(cfg.Timeout * float64(time.Second))
	}

	base := []Option{WithPrefix(cfg.Prefix), WithTTL(time.Duration(cfg.TTL) * time.Second)}
	return NewFromClient(client, append(base, opts...)...)
}

// NewFromClient creates a new memcached store from an existing client.
func NewFromClient(client Client, opts ...Option) *Store {
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

func (s *Store) expiration() int32 {
	if s.ttl <= 0 {
		return 0
	}
	if s.ttl > maxRelativeExpiry {
		return int32(time.Now().Add(s.ttl).Unix())
	}
	return int32(s.ttl / time.Second)
}

// Setup is a no-op: memcached needs no provisioning.
func (s *Store) Setup(ctx context.Context) error { return nil }

func (s *Store) Open(ctx context.Context, savePath, name string) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Read retrieves the payload. A cache miss yields an empty payload.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, err := s.client.Get(s.key(id))
	if err != nil {
		if errors.Is(err, backend.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from memcached: %w", err)
	}
	return item.Value, nil
}

// Write stores the payload, applying the TTL when one is configured.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.client.Set(&backend.Item{
		Key:        s.key(id),
		Value:      data,
		Expiration: s.expiration(),
	})
	if err != nil {
		return fmt.Errorf("failed to save to memcached: %w", err)
	}
	return nil
}

// Destroy removes the key. A missing key is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Delete(s.key(id)); err != nil && !errors.Is(err, backend.ErrCacheMiss) {
		return fmt.Errorf("failed to delete from memcached: %w", err)
	}
	return nil
}

// GC is a no-op: memcached expires keys on its own.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	return 0, nil
}
