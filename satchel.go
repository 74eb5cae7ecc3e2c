package satchel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/driver"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/aretw0/satchel/pkg/ports"
)

// Version is the satchel release.
const Version = "0.1.0"

// Backend is a storage driver opened outside of any request, for maintenance
// tasks such as provisioning, garbage collection and inspection.
type Backend struct {
	Driver ports.StorageDriver
	Kind   domain.DriverKind

	setup       bool
	clock       func() time.Time
	middlewares []middleware.Middleware
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*Backend)

// WithLogger configures a logger for the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithSetup controls whether Open provisions the backend (default true).
func WithSetup(enabled bool) Option {
	return func(b *Backend) {
		b.setup = enabled
	}
}

// WithMiddleware decorates the driver, e.g. to log every call.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(b *Backend) {
		b.middlewares = append(b.middlewares, mws...)
	}
}

// WithClock overrides the time source of backends that keep timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.clock = now
	}
}

// Open builds the backend described by cfg (see driver.New) and provisions it.
func Open(ctx context.Context, cfg any, opts ...Option) (*Backend, error) {
	b := &Backend{setup: true, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	driverOpts := []driver.Option{driver.WithLogger(b.logger)}
	if b.clock != nil {
		driverOpts = append(driverOpts, driver.WithClock(b.clock))
	}
	d, kind, err := driver.New(cfg, driverOpts...)
	if err != nil {
		return nil, err
	}
	b.Driver, b.Kind = middleware.Chain(d, b.middlewares...), kind

	if b.setup {
		if err := b.Driver.Setup(ctx); err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to set up %s session driver: %w", kind, err)
		}
		b.logger.Info("Session storage ready", "driver", kind)
	}
	return b, nil
}

// GC removes sessions idle for longer than maxLifetime and returns how many were deleted.
// Expiring backends report 0.
func (b *Backend) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	n, err := b.Driver.GC(ctx, maxLifetime)
	if err != nil {
		return n, fmt.Errorf("session gc failed: %w", err)
	}
	b.logger.Info("Session garbage collection", "driver", b.Kind, "deleted", n, "max_lifetime", maxLifetime)
	return n, nil
}

// Inspect returns the raw payload stored for id; empty when there is none.
func (b *Backend) Inspect(ctx context.Context, id string) ([]byte, error) {
	return b.Driver.Read(ctx, id)
}

// Remove destroys every given session, continuing past failures.
func (b *Backend) Remove(ctx context.Context, ids ...string) error {
	var errs []error
	for _, id := range ids {
		if err := b.Driver.Destroy(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove session '%s': %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// List returns the stored session IDs in order, when the backend can enumerate them.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	l, ok := middleware.Unwrap(b.Driver).(ports.Lister)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot list sessions", domain.ErrNotSupported, b.Kind)
	}
	ids, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

// Close releases connections the backend owns.
func (b *Backend) Close() error {
	if s, ok := middleware.Unwrap(b.Driver).(ports.Shutdowner); ok {
		return s.Shutdown()
	}
	return nil
}
