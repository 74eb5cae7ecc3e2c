package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/domain"
)

// Config holds the mapping keys accepted by the file driver.
type Config struct {
	Path   string `mapstructure:"path"`
	Prefix string `mapstructure:"prefix"`
}

// Store implements ports.StorageDriver using the local filesystem.
// Each session is one file named {PREFIX}_{id} holding the raw payload.
type Store struct {
	BasePath string

	prefix string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Store)

// WithPrefix sets the file name prefix. It is uppercased; empty means domain.DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = domain.NormalizePrefix(prefix, nil)
	}
}

// WithClock overrides the time source used by GC.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used to report per-file GC failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// DefaultPath is the directory used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "satchel-sessions")
}

// New creates a Store rooted at basePath, creating the directory if needed.
// If basePath is empty, DefaultPath is used.
func New(basePath string, opts ...Option) (*Store, error) {
	if basePath == "" {
		basePath = DefaultPath()
	}
	basePath = strings.TrimRight(basePath, `/\`)
	if basePath == "" {
		basePath = string(filepath.Separator)
	}

	s := &Store{
		BasePath: basePath,
		prefix:   domain.DefaultPrefix,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(s.BasePath, 0o777); err != nil {
		return nil, fmt.Errorf("failed to ensure session directory: %w", err)
	}
	return s, nil
}

// NewFromConfig creates a Store from a decoded configuration mapping.
func NewFromConfig(cfg Config, opts ...Option) (*Store, error) {
	return New(cfg.Path, append([]Option{WithPrefix(cfg.Prefix)}, opts...)...)
}

// Prefix returns the normalized file name prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, s.prefix+"_"+id)
}

// validID rejects IDs that would escape the session directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, "/\\\x00")
}

// Setup ensures the session directory exists.
func (s *Store) Setup(ctx context.Context) error {
	if err := os.MkdirAll(s.BasePath, 0o777); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}
	return nil
}

func (s *Store) Open(ctx context.Context, savePath, name string) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

// Read returns the session payload, or an empty payload if the file does not exist.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if !validID(id) {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return data, nil
}

// Write replaces the session file atomically.
// It writes to a temporary file in the same directory and renames it over the destination,
// so readers never observe a partially written payload. Concurrent writers still race: last rename wins.
func (s *Store) Write(ctx context.Context, id string, data []byte) error {
	if !validID(id) {
		return fmt.Errorf("invalid session id %q", id)
	}

	// Dot-prefixed so GC never mistakes it for a session file.
	tmpFile, err := os.CreateTemp(s.BasePath, "."+s.prefix+"_"+id+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}

// Destroy removes the session file. A missing file is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}

	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// GC deletes session files whose modification time is older than now-maxLifetime.
// A file that cannot be removed is logged and skipped; the count only includes successful deletions.
func (s *Store) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	cutoff := s.now().Add(-maxLifetime)

	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list session files: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), s.prefix+"_") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed concurrently.
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.BasePath, entry.Name())
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("Failed to remove expired session file", "path", path, "err", err)
			}
			continue
		}
		count++
	}

	return count, nil
}

// List returns the IDs of every stored session.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), s.prefix+"_") {
			sessions = append(sessions, strings.TrimPrefix(entry.Name(), s.prefix+"_"))
		}
	}
	return sessions, nil
}
