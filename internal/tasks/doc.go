// Package tasks orchestrates playlist operations across music providers with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines three operations:
//
//  1. [SyncEngine.Run] : Cross-provider transfer
//     - Fetches the source playlist by id or name
//     - Resolves each track on the destination by ISRC, falling back to a title/artist search
//     - Adds matched tracks to an existing destination playlist
//     - Returns detailed results including failed matches
//
//  2. [SyncEngine.Diff] : Compare playlists across providers
//     - Exports both source and destination playlists
//     - Matches tracks via ISRC (preferred) or normalized title/artist
//     - Reports matched count, missing tracks, and extra tracks
//
//  3. [SyncEngine.Dump] : Fetch everything a provider exposes about the user
//     - Profile, playlists, top artists and tracks, history, current track
//     - Unsupported capabilities are recorded, not fatal
//
// [PlaylistEngine.BulkExport] writes many playlists to disk (JSON, CSV, Markdown or text) with a
// rate limited producer feeding a worker pool, and finishes with an export manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Track Caching
//
// Pass a [services.Dispatcher] as the destination to route ISRC lookups through its [services.TrackCache].
package tasks
