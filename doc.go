/*
Package satchel is a pluggable session persistence layer.

Session payloads are opaque byte strings keyed by a session ID. They are kept
in one of four interchangeable storage backends that all satisfy
ports.StorageDriver:

  - file: one file per session in a directory (pkg/adapters/file).
  - relational: a "sessions" table through GORM, on SQLite or PostgreSQL (pkg/adapters/sql).
  - memcache: a memcached server through gomemcache (pkg/adapters/memcache).
  - redis: a Redis server through go-redis (pkg/adapters/redis).

The backend is chosen from a configuration mapping or a ready client handle
(pkg/driver). A session.Manager boots the chosen backend once per execution
context and drives the host runtime through a start/end lifecycle; the HTTP
host in pkg/adapters/http provides that runtime for net/http servers.

# Usage

Serve sessions from a directory of files:

	provider, err := satchelhttp.NewProvider(ctx, driver.Config{
		"driver": "file",
		"path":   "/var/lib/app/sessions",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer provider.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		m, _ := session.FromContext(r.Context())
		_ = session.New(m).Set(r.Context(), "visited", true)
	})
	log.Fatal(http.ListenAndServe(":8080", provider.Middleware(mux)))

Maintenance outside requests goes through Open:

	b, err := satchel.Open(ctx, driver.Config{"driver": "redis", "host": "cache"})
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()
	n, err := b.GC(ctx, 24*time.Minute)
*/
package satchel
