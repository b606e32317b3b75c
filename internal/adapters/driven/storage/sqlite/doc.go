// Package sqlite provides the SQLite implementation of driven.DocumentStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Documents and their chunks, including embeddings stored
// as little-endian float32 blobs, live in a single database so the vector
// index can be rebuilt at startup.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.verity/data/verity.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode.
package sqlite
