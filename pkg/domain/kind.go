package domain

import "strings"

// DriverKind identifies one of the supported storage backends.
type DriverKind string

const (
	// DriverFile stores one file per session in a directory.
	DriverFile DriverKind = "file"
	// DriverRelational stores sessions in a SQL table.
	DriverRelational DriverKind = "relational"
	// DriverMemcache stores sessions in memcached.
	DriverMemcache DriverKind = "memcache"
	// DriverRedis stores sessions in redis.
	DriverRedis DriverKind = "redis"
	// DriverMemory keeps sessions in process memory. It is only selected by
	// handing over a memory store; no discriminator maps to it.
	DriverMemory DriverKind = "memory"
)

var kindAliases = map[string]DriverKind{
	"file":       DriverFile,
	"files":      DriverFile,
	"relational": DriverRelational,
	"sql":        DriverRelational,
	"pdo":        DriverRelational,
	"database":   DriverRelational,
	"memcache":   DriverMemcache,
	"memcached":  DriverMemcache,
	"redis":      DriverRedis,
}

// ParseDriverKind maps a discriminator (case-insensitive, aliases allowed) to a DriverKind.
func ParseDriverKind(s string) (DriverKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", NewConfigError("driver", KeyDriver, "unsupported session driver '"+s+"'")
	}
	return kind, nil
}

func (k DriverKind) String() string {
	return string(k)
}

// Expires reports whether records of this kind are reclaimed by the GC sweep.
// Cache servers evict on their own, so GC is a no-op for them.
func (k DriverKind) Expires() bool {
	return k == DriverFile || k == DriverRelational || k == DriverMemory
}
