// Package sqlite implements ports.RecordStore on SQLite (modernc.org/sqlite, no cgo).
//
// The database runs in WAL mode so readers proceed concurrently; writers are serialised
// by a mutex and every Insert is a single immediate transaction. The schema is managed
// with golang-migrate from migrations embedded in the binary.
package sqlite
