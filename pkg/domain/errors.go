package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of every configuration failure.
// Missing connection keys, unsupported drivers and out-of-order manager calls all match it.
var ErrConfiguration = errors.New("configuration error")

// ErrNotInitialized is returned when a Manager method requires a prior Init.
var ErrNotInitialized = fmt.Errorf("%w: session manager not initialized, call Init first", ErrConfiguration)

// ErrNoDriver is returned when a session is started without a booted storage driver.
var ErrNoDriver = fmt.Errorf("%w: session driver not configured", ErrConfiguration)

// ErrInactive is returned when session values are accessed while no session is open.
var ErrInactive = errors.New("session is not active")

// ErrNotSupported is returned when a backend lacks an optional capability.
var ErrNotSupported = errors.New("operation not supported by this session driver")

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	// Op is the operation that rejected the configuration (e.g. "sql.New").
	Op string
	// Key is the offending configuration key, if any.
	Key string
	// Reason is a human readable description.
	Reason string
}

// NewConfigError builds a ConfigError.
func NewConfigError(op, key, reason string) *ConfigError {
	return &ConfigError{Op: op, Key: key, Reason: reason}
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: key '%s': %s", e.Op, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Unwrap makes every ConfigError match ErrConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// MissingKey is a shortcut for the common "required key not found" case.
func MissingKey(op, key string) *ConfigError {
	return NewConfigError(op, key, "not found")
}
