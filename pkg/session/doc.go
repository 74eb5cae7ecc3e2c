/*
Package session implements the session lifecycle on top of a pluggable storage driver.

A Manager is created per execution context (typically one HTTP request). Its
first Init boots exactly one storage driver; later Init calls are ignored.
Start registers the driver with the Host runtime and opens the session at most
once; End flushes, clears and destroys it and may be called any number of times.

	m := session.NewManager(host)
	if _, err := m.Init(ctx, driver.Config{"driver": "file", "path": "/var/lib/app/sessions"}); err != nil {
		return err
	}
	s := session.New(m)
	_ = s.Set(ctx, "user_id", 42)

Session is a thin facade over the Manager for namespaced value access.
*/
package session
