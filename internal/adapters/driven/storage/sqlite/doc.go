// Package sqlite provides the SQLite-backed implementation of the
// registry and metadata store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// both store interfaces through a single database connection:
//
//   - RegistryStore: per-subject bookkeeping (counts, freshness)
//   - MetadataStore: question records keyed by (subject, id)
//
// The vector half of the dual-store index deliberately lives outside
// this package; the database only holds the metadata that shares the
// vector index's id space.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded
// from the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.asked/data/asked.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
