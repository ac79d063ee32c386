// Package models defines the provider-agnostic records produced by the socially services.
//
// The package contains two categories of types:
//
// 1. Canonical records: immutable values built by the normalizers in the services package
//   - [Track] : Song metadata with ISRC for cross-provider matching
//   - [Album] : Album metadata with its owning [Artist]
//   - [Artist] : Artist name, provider-scoped id and artwork
//   - [Playlist] : Playlist metadata with authorship (when the provider exposes it)
//   - [SearchResult] : Four independently normalized collections
//   - [Page] : One page of a cursor-paginated collection
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedTrack] : A track resolved by ISRC on one provider, cached for later lookups
//
// Once constructed, canonical records carry no reference to the provider that produced them.
// Fields that a provider may not supply use the empty string as the "unknown" marker.
// ISRC and id values are compared with case-sensitive string equality.
package models
