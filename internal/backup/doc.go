// Package backup produces ZIP snapshots of the application's own directory tree.
//
// An Archiver walks its root directory, prunes excluded directory names before
// descending into them, and deflates every remaining regular file into
// <dir>/surplus_backup_<YYYYMMDD_HHMMSS>.zip under its path relative to the
// root. Every call writes a full new archive; nothing is incremental and old
// archives are never pruned.
//
// The snapshot is of raw files on disk, so the SQLite database file is
// included like any other file when it lives under the root.
package backup
