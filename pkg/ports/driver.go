package ports

import (
	"context"
	"time"
)

// StorageDriver is the contract every session storage backend implements.
//
// Payloads are opaque bytes. A missing record is never an error: Read returns an
// empty payload and Destroy succeeds. Every method must be safe to call with no
// prior state (double Close, Destroy of an unknown ID).
type StorageDriver interface {
	// Setup provisions the backend (table, directory). It is idempotent.
	Setup(ctx context.Context) error

	// Open is called when a session starts. It may be a no-op.
	Open(ctx context.Context, savePath, name string) error

	// Close is called when a session is written and closed. It may be a no-op.
	Close(ctx context.Context) error

	// Read returns the payload stored for id, or an empty payload if there is none.
	Read(ctx context.Context, id string) ([]byte, error)

	// Write replaces (or creates) the record for id.
	Write(ctx context.Context, id string, data []byte) error

	// Destroy removes the record for id if present.
	Destroy(ctx context.Context, id string) error

	// GC deletes every record last modified before now-maxLifetime and returns how many were deleted.
	// Backends with server-side expiry return 0.
	GC(ctx context.Context, maxLifetime time.Duration) (int, error)
}

// Lister is implemented by drivers that can enumerate stored session IDs.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Shutdowner is implemented by drivers that own a connection pool or client
// they can release. Drivers built over a caller-supplied handle leave it open.
type Shutdowner interface {
	Shutdown() error
}
