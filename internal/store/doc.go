// Package store provides SQLite-backed storage for saved searches.
//
// A saved search is a named criteria tree bound to an entity kind. The tree
// is stored as canonical JSON next to its content hash, so two searches
// that differ only in formatting are recognisable as the same search.
//
// # Ordering
//
// Every write takes the next value of a logical clock (seq). Listings are
// ordered by seq ASC, id ASC COLLATE BINARY and never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are applied through PRAGMA user_version migrations.
package store
