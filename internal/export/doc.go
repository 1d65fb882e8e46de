// Package export renders device records for download or archival.
//
// Supported formats:
//   - CSV: the web download and default CLI output, with a fixed header row
//   - Markdown: a GitHub-flavored table for pasting into tickets and wikis
//   - JSON: a document for other tools to consume
//
// Writers never reorder their input. Callers pass rows oldest-first so the
// output is deterministic: identical table state always yields identical bytes.
package export
