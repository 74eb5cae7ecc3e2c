/*
Package domain contains the shared vocabulary of the session persistence layer.

It holds the value types every other package agrees on and is kept free of I/O,
following the same Hexagonal Architecture split as the ports and adapters packages.

# Key Entities

  - DriverKind: the closed set of storage backends a Manager can boot.
  - Options: session runtime options (name, strict mode, GC sampling, lifetime).
  - CookieParams: attributes of the session ID cookie.
  - ConfigError: the error raised for invalid configuration or out-of-order calls.
*/
package domain
