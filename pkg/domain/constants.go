package domain

// DefaultPrefix is the key namespace used when a backend is configured without one.
const DefaultPrefix = "SATCHEL"

// DefaultNamespace is the facade namespace values are stored under when none is given.
const DefaultNamespace = "APP"

// Configuration mapping keys shared by the driver factory and the backends.
const (
	KeyDriver   = "driver"
	KeyPath     = "path"
	KeyPrefix   = "prefix"
	KeyDSN      = "dsn"
	KeyUsername = "username"
	KeyPassword = "password"
	KeyHost     = "host"
	KeyPort     = "port"
)
