package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/satchel/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.StorageDriver
	logger *slog.Logger
	level  slog.Level
}

// NewLoggingMiddleware creates a middleware that logs every driver call at level.
// Failed calls are always logged at error level. Payloads are never logged, only their size.
func NewLoggingMiddleware(logger *slog.Logger, level slog.Level) Middleware {
	return func(next ports.StorageDriver) ports.StorageDriver {
		return &loggingMiddleware{next: next, logger: logger, level: level}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op string, start time.Time, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "duration", time.Since(start))
	if err != nil {
		m.logger.ErrorContext(ctx, "Session driver call failed", append(attrs, "error", err)...)
		return
	}
	m.logger.Log(ctx, m.level, "Session driver call", attrs...)
}

func (m *loggingMiddleware) Setup(ctx context.Context) error {
	start := time.Now()
	err := m.next.Setup(ctx)
	m.log(ctx, "setup", start, err)
	return err
}

func (m *loggingMiddleware) Open(ctx context.Context, savePath, name string) error {
	start := time.Now()
	err := m.next.Open(ctx, savePath, name)
	m.log(ctx, "open", start, err, "name", name)
	return err
}

func (m *loggingMiddleware) Close(ctx context.Context) error {
	start := time.Now()
	err := m.next.Close(ctx)
	m.log(ctx, "close", start, err)
	return err
}

func (m *loggingMiddleware) Read(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	data, err := m.next.Read(ctx, id)
	m.log(ctx, "read", start, err, "session_id", id, "bytes", len(data))
	return data, err
}

func (m *loggingMiddleware) Write(ctx context.Context, id string, data []byte) error {
	start := time.Now()
	err := m.next.Write(ctx, id, data)
	m.log(ctx, "write", start, err, "session_id", id, "bytes", len(data))
	return err
}

func (m *loggingMiddleware) Destroy(ctx context.Context, id string) error {
	start := time.Now()
	err := m.next.Destroy(ctx, id)
	m.log(ctx, "destroy", start, err, "session_id", id)
	return err
}

func (m *loggingMiddleware) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	start := time.Now()
	n, err := m.next.GC(ctx, maxLifetime)
	m.log(ctx, "gc", start, err, "max_lifetime", maxLifetime, "deleted", n)
	return n, err
}

// Unwrap returns the decorated driver.
func (m *loggingMiddleware) Unwrap() ports.StorageDriver { return m.next }
