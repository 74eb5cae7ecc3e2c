package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/satchel/internal/decode"
	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/driver"
	"github.com/aretw0/satchel/pkg/observability"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/aretw0/satchel/pkg/ports"
)

// Manager owns the storage driver and the started flag of one execution context.
// It is not safe for concurrent use; give each request its own Manager.
type Manager struct {
	host ports.Host

	booted  bool
	driver  ports.StorageDriver
	kind    domain.DriverKind
	started bool
	options domain.Options
	cookies domain.CookieParams

	setup       bool
	driverOpts  []driver.Option
	middlewares []middleware.Middleware
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager and the drivers it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics instruments the booted driver.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithDriverOptions forwards options to driver construction.
func WithDriverOptions(opts ...driver.Option) Option {
	return func(m *Manager) {
		m.driverOpts = append(m.driverOpts, opts...)
	}
}

// WithMiddleware decorates the booted driver, e.g. with call logging.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(m *Manager) {
		m.middlewares = append(m.middlewares, mws...)
	}
}

// WithSetup controls whether Init provisions the driver (default true).
// Disable it when a shared, already provisioned backend is passed to every request's Manager.
func WithSetup(enabled bool) Option {
	return func(m *Manager) {
		m.setup = enabled
	}
}

// NewManager creates a Manager driving the given host runtime.
func NewManager(host ports.Host, opts ...Option) *Manager {
	m := &Manager{
		host:   host,
		setup:  true,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init boots the storage driver described by cfg and installs default options and cookies.
//
// cfg is anything driver.New accepts: nil, a driver.Config mapping or a client handle.
// The first successful call wins; later calls return the Manager unchanged.
// On error the Manager is left untouched.
func (m *Manager) Init(ctx context.Context, cfg any) (*Manager, error) {
	if m.booted {
		m.logger.Debug("Session manager already booted, ignoring configuration", "driver", m.kind)
		return m, nil
	}

	d, kind, err := driver.New(cfg, append([]driver.Option{driver.WithLogger(m.logger)}, m.driverOpts...)...)
	if err != nil {
		return nil, err
	}

	if m.setup {
		if err := d.Setup(ctx); err != nil {
			if s, ok := d.(ports.Shutdowner); ok && d != cfg {
				_ = s.Shutdown()
			}
			return nil, fmt.Errorf("failed to set up %s session driver: %w", kind, err)
		}
	}

	d = middleware.Chain(d, m.middlewares...)
	if m.metrics != nil {
		d = m.metrics.Instrument(d, kind)
	}

	m.driver = d
	m.kind = kind
	m.options = domain.DefaultOptions()
	m.cookies = domain.DefaultCookieParams()
	m.booted = true

	m.logger.Debug("Session manager booted", "driver", kind)
	return m, nil
}

// SetOptions overlays options onto the current ones, e.g. {"name": "APPSESSID", "gc_maxlifetime": 3600}.
// Unknown option names are rejected and nothing is applied.
func (m *Manager) SetOptions(options map[string]any) error {
	if !m.booted {
		return domain.ErrNotInitialized
	}
	merged := m.options
	if err := decode.Into("session.SetOptions", options, &merged, true); err != nil {
		return err
	}
	m.options = merged
	return nil
}

// SetCookies overlays cookie parameters onto the current ones, e.g. {"path": "/app", "samesite": "Lax"}.
// Unknown attributes are rejected and nothing is applied.
func (m *Manager) SetCookies(cookies map[string]any) error {
	if !m.booted {
		return domain.ErrNotInitialized
	}
	merged := m.cookies
	if err := decode.Into("session.SetCookies", cookies, &merged, true); err != nil {
		return err
	}
	m.cookies = merged
	return nil
}

// Start opens the session unless this Manager already did or the host already has one active.
func (m *Manager) Start(ctx context.Context) error {
	if !m.booted {
		return domain.ErrNoDriver
	}
	if m.started || m.host.Active() {
		return nil
	}

	m.host.SetDriver(m.driver)
	m.host.SetCookieParams(m.cookies)
	if err := m.host.Start(ctx, m.options); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	m.started = true

	m.logger.Debug("Session started", "driver", m.kind, "name", m.options.Name)
	return nil
}

// End writes and closes the session, clears its values and destroys its record.
// It starts the session first if needed, so calling it before Start or twice is safe.
func (m *Manager) End(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	writeErr := m.host.WriteClose(ctx)
	m.host.Unset()
	m.started = false
	destroyErr := m.host.Destroy(ctx)

	if err := errors.Join(writeErr, destroyErr); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Started reports whether this Manager opened the session.
func (m *Manager) Started() bool {
	return m.started
}

// Booted reports whether Init succeeded.
func (m *Manager) Booted() bool {
	return m.booted
}

// Driver returns the booted storage driver, or nil before Init.
func (m *Manager) Driver() ports.StorageDriver {
	return m.driver
}

// Kind returns the booted driver kind, or "" before Init.
func (m *Manager) Kind() domain.DriverKind {
	return m.kind
}

// Options returns a copy of the current session options.
func (m *Manager) Options() domain.Options {
	return m.options
}

// Cookies returns a copy of the current cookie parameters.
func (m *Manager) Cookies() domain.CookieParams {
	return m.cookies
}

// Host returns the runtime this Manager drives.
func (m *Manager) Host() ports.Host {
	return m.host
}
