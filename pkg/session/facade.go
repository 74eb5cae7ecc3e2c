package session

import (
	"context"
	"maps"
	"strings"

	"github.com/aretw0/satchel/pkg/domain"
)

// Session is a namespaced view over the values of a Manager's session.
// Every call starts the session lazily.
type Session struct {
	m *Manager
}

// New wraps a booted Manager.
func New(m *Manager) *Session {
	return &Session{m: m}
}

// Manager returns the wrapped Manager.
func (s *Session) Manager() *Manager {
	return s.m
}

func namespace(ns []string) string {
	if len(ns) == 0 || ns[0] == "" {
		return domain.DefaultNamespace
	}
	return strings.ToUpper(ns[0])
}

// bucket returns the namespace map, creating it when create is set.
func (s *Session) bucket(ctx context.Context, ns []string, create bool) (map[string]any, error) {
	if err := s.m.Start(ctx); err != nil {
		return nil, err
	}
	values := s.m.Host().Values()
	name := namespace(ns)
	if b, ok := values[name].(map[string]any); ok {
		return b, nil
	}
	if !create || values == nil {
		return nil, nil
	}
	b := make(map[string]any)
	values[name] = b
	return b, nil
}

// Set stores value under key in the namespace (default APP).
func (s *Session) Set(ctx context.Context, key string, value any, ns ...string) error {
	b, err := s.bucket(ctx, ns, true)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.ErrInactive
	}
	b[key] = value
	return nil
}

// Get returns the value under key, or nil when absent.
func (s *Session) Get(ctx context.Context, key string, ns ...string) (any, error) {
	b, err := s.bucket(ctx, ns, false)
	if err != nil {
		return nil, err
	}
	return b[key], nil
}

// Has reports whether key is set in the namespace.
func (s *Session) Has(ctx context.Context, key string, ns ...string) (bool, error) {
	b, err := s.bucket(ctx, ns, false)
	if err != nil {
		return false, err
	}
	_, ok := b[key]
	return ok, nil
}

// Pop returns the value under key and removes it.
func (s *Session) Pop(ctx context.Context, key string, ns ...string) (any, error) {
	b, err := s.bucket(ctx, ns, false)
	if err != nil {
		return nil, err
	}
	v, ok := b[key]
	if ok {
		delete(b, key)
	}
	return v, nil
}

// All returns a copy of every value in the namespace.
func (s *Session) All(ctx context.Context, ns ...string) (map[string]any, error) {
	b, err := s.bucket(ctx, ns, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(b))
	maps.Copy(out, b)
	return out, nil
}

// Regenerate issues a new session ID, destroying the old record when deleteOld is set.
func (s *Session) Regenerate(ctx context.Context, deleteOld bool) error {
	if err := s.m.Start(ctx); err != nil {
		return err
	}
	return s.m.Host().RegenerateID(ctx, deleteOld)
}

// End terminates the session. See Manager.End.
func (s *Session) End(ctx context.Context) error {
	return s.m.End(ctx)
}

// ID returns the current session ID.
func (s *Session) ID() string {
	return s.m.Host().ID()
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.m.Host().Name()
}
