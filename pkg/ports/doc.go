/*
Package ports defines the driven ports (interfaces) of the session layer.

These interfaces decouple the session lifecycle from concrete storage media and
from the runtime that carries the session ID to the client.

# Key Interfaces

  - StorageDriver: read/write/destroy/gc over one storage medium (file, SQL, cache server).
  - Host: the per-request session runtime a Manager registers the driver with.

RunStorageDriverContract is a reusable test suite every StorageDriver adapter runs.
*/
package ports
