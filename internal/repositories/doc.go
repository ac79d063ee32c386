// Package repositories implements SQLite persistence for the ISRC lookup cache.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Entries are soft deleted via deleted_at timestamps and excluded from queries by default.
//
// Key Implementations:
//   - [TrackRepository] : cached catalog tracks keyed by provider, country and ISRC
//   - [TrackCacheAdapter] : services.TrackCache backed by [TrackRepository]
//
// Only catalog lookups are stored. The user's library is always read from the provider.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
