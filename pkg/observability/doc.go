/*
Package observability provides Prometheus instrumentation for session storage drivers.

Metrics wraps any ports.StorageDriver in a decorator that counts operations,
records their latency and tracks how many records GC sweeps reclaim, labelled
by backend kind.
*/
package observability
