// Package database provides SQLite persistence for Home Server.
//
// It wraps database/sql with:
//   - Connection management (WAL mode, busy timeout, foreign keys)
//   - Embedded schema migrations applied at startup
//   - Health checks for monitoring
//
// SQLite is configured with a single-writer connection pool, which matches
// its locking model and keeps concurrent request handling simple.
package database
