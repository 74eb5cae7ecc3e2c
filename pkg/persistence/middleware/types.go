// Package middleware decorates storage drivers and inspects stored payloads.
package middleware

import "github.com/aretw0/satchel/pkg/ports"

// Middleware allows wrapping a StorageDriver to add behavior.
type Middleware func(ports.StorageDriver) ports.StorageDriver

// Chain applies mws to d; the first middleware ends up outermost.
func Chain(d ports.StorageDriver, mws ...Middleware) ports.StorageDriver {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// Unwrap peels decorators off d until it reaches the innermost driver.
func Unwrap(d ports.StorageDriver) ports.StorageDriver {
	for {
		u, ok := d.(interface{ Unwrap() ports.StorageDriver })
		if !ok {
			return d
		}
		d = u.Unwrap()
	}
}
