// Package database provides SQLite-based storage for surplus.
//
// This package implements DeviceDB, which stores a single table:
//
//	devices(id, serial_number, tag_number, device_type, created_at)
//
// There are no other tables, no foreign keys and no indexes beyond the
// primary key. Records are append-only: DeviceDB exposes Insert and List but
// no update or delete.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file that sits next to the application
// 2. CGO-free implementation allows easy cross-compilation
// 3. The file is picked up by the directory backup like any other file
//
// Every operation acquires its own connection from the pool and releases it
// before returning, on success and on failure.
package database
