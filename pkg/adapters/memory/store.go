package memory

import (
	"context"
	"sync"
	"time"
)

type record struct {
	data     []byte
	modified time.Time
}

// Store implements ports.StorageDriver in memory.
// Safe for concurrent use. It is meant for tests and single-process development.
type Store struct {
	data map[string]record
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]record),
		now:  time.Now,
	}
}

// SetClock overrides the time source used for modification times and GC.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Setup(ctx context.Context) error { return nil }

func (s *Store) Open(ctx context.Context, savePath, name string) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Read returns a copy of the payload so callers can't mutate the store.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), rec.data...), nil
}

// Write stores a copy of the payload.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = record{data: append([]byte(nil), data...), modified: s.now()}
	return nil
}

// Destroy removes the payload.
func (s *Store) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// GC deletes records modified before now-maxLifetime.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxLifetime)
	count := 0
	for id, rec := range s.data {
		if rec.modified.Before(cutoff) {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
