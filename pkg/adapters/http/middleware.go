package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
	"github.com/aretw0/satchel/pkg/driver"
	"github.com/aretw0/satchel/pkg/observability"
	"github.com/aretw0/satchel/pkg/persistence/middleware"
	"github.com/aretw0/satchel/pkg/ports"
	"github.com/aretw0/satchel/pkg/session"
)

// Provider shares one provisioned storage backend across requests and gives
// every request its own Manager and Host.
type Provider struct {
	driver  ports.StorageDriver
	kind    domain.DriverKind
	options map[string]any
	cookies map[string]any

	hostOpts    []HostOption
	driverOpts  []driver.Option
	middlewares []middleware.Middleware
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithOptions applies session option overrides to every request's Manager.
func WithOptions(options map[string]any) ProviderOption {
	return func(p *Provider) {
		p.options = options
	}
}

// WithCookies applies cookie parameter overrides to every request's Manager.
func WithCookies(cookies map[string]any) ProviderOption {
	return func(p *Provider) {
		p.cookies = cookies
	}
}

// WithHostOptions forwards options to every request's Host.
func WithHostOptions(opts ...HostOption) ProviderOption {
	return func(p *Provider) {
		p.hostOpts = append(p.hostOpts, opts...)
	}
}

// WithDriverOptions forwards options to backend construction.
func WithDriverOptions(opts ...driver.Option) ProviderOption {
	return func(p *Provider) {
		p.driverOpts = append(p.driverOpts, opts...)
	}
}

// WithMiddleware decorates every request's driver.
func WithMiddleware(mws ...middleware.Middleware) ProviderOption {
	return func(p *Provider) {
		p.middlewares = append(p.middlewares, mws...)
	}
}

// WithMetrics instruments every request's driver.
func WithMetrics(metrics *observability.Metrics) ProviderOption {
	return func(p *Provider) {
		p.metrics = metrics
	}
}

// WithProviderLogger configures a logger for the Provider, its Managers and Hosts.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// NewProvider builds and provisions the backend described by cfg, and validates the overrides.
func NewProvider(ctx context.Context, cfg any, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	shared, err := session.NewManager(nil,
		session.WithLogger(p.logger),
		session.WithDriverOptions(p.driverOpts...),
	).Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.driver = shared.Driver()
	p.kind = shared.Kind()

	if err := p.configure(shared); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Provider) configure(m *session.Manager) error {
	if p.options != nil {
		if err := m.SetOptions(p.options); err != nil {
			return err
		}
	}
	if p.cookies != nil {
		if err := m.SetCookies(p.cookies); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns the shared backend.
func (p *Provider) Driver() ports.StorageDriver { return p.driver }

// Kind returns the shared backend kind.
func (p *Provider) Kind() domain.DriverKind { return p.kind }

// Close releases the backend connection when it owns one.
func (p *Provider) Close() error {
	if s, ok := p.driver.(ports.Shutdowner); ok {
		return s.Shutdown()
	}
	return nil
}

// Manager creates a booted Manager for one request.
func (p *Provider) Manager(w http.ResponseWriter, r *http.Request) (*session.Manager, error) {
	host := NewHost(w, r, append([]HostOption{WithLogger(p.logger)}, p.hostOpts...)...)
	opts := []session.Option{
		session.WithLogger(p.logger),
		session.WithSetup(false),
		session.WithMiddleware(p.middlewares...),
	}
	if p.metrics != nil {
		opts = append(opts, session.WithMetrics(p.metrics))
	}
	m, err := session.NewManager(host, opts...).Init(r.Context(), p.driver)
	if err != nil {
		return nil, err
	}
	if err := p.configure(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware stores a per-request Manager in the request context and writes
// the session back once the handler returns.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := p.Manager(w, r)
		if err != nil {
			http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
			p.logger.Error("Session manager init failed", "error", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), m)))

		if m.Started() {
			if err := m.Host().WriteClose(r.Context()); err != nil {
				p.logger.Error("Session write failed", "error", err, "driver", p.kind)
			}
		}
	})
}
