// Package database provides SQLite-based crawl history for uiscout.
//
// Every finished crawl can be stored so that `uiscout compare` can report
// which pages appeared, disappeared or changed their interactive shape
// between two runs against the same seed.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
package database
