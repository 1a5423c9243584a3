// Package sqlite provides a SQLite-based consultation log.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single Store owns the database connection and hands out
// the port implementations it backs:
//
//   - ConsultationLog: completed consultations and the rules they fired
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.diagnosa/data/consultations.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite in WAL mode.
package sqlite
