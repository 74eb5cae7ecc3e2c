package ports

import (
	"context"

	"github.com/aretw0/satchel/pkg/domain"
)

// Host is the session runtime a Manager drives.
// It owns the session ID, the in-memory values and the cookie delivery, and it
// calls back into the registered StorageDriver. The driver is borrowed: its
// lifetime is governed by the Manager.
type Host interface {
	// Active reports whether a session is currently open.
	Active() bool

	// SetDriver registers the storage backend used for subsequent operations.
	SetDriver(driver StorageDriver)

	// SetCookieParams sets the attributes of the session ID cookie.
	SetCookieParams(params domain.CookieParams)

	// Start opens a new or resumed session.
	Start(ctx context.Context, opts domain.Options) error

	// WriteClose persists the in-memory values and closes the session.
	WriteClose(ctx context.Context) error

	// Unset clears every in-memory value.
	Unset()

	// Destroy removes the session record and invalidates the ID.
	Destroy(ctx context.Context) error

	// Values returns the live values of the open session.
	Values() map[string]any

	// ID returns the current session ID, empty when inactive.
	ID() string

	// Name returns the session name (cookie name).
	Name() string

	// RegenerateID replaces the session ID, optionally destroying the old record.
	RegenerateID(ctx context.Context, deleteOld bool) error
}
