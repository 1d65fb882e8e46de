// Package model defines the core data structures used throughout surplus.
//
// This package contains the following main types:
//   - Device: A tracked surplus item (serial number, tag number, type, creation time)
//   - ValidationError: A user-visible, non-fatal rejection of a create request
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The database, export, and server packages all need the Device
// type, so centralizing it prevents import cycles.
//
// Devices are append-only. Nothing in this package (or anywhere else) mutates or
// deletes a stored record; NewDevice is the only constructor that produces a
// record intended for insertion.
package model
