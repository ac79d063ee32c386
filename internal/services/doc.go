// Package services defines the [MusicProvider] interface for music streaming providers and implements it for Spotify and Apple Music.
//
// # Provider Interface
//
// All providers implement a common capability set, so callers work with canonical models regardless of the linked account.
// Capabilities a provider cannot offer fail with [shared.ErrUnsupported] instead of being silently skipped.
//
// [Dispatcher] selects the provider linked to the account once, forwards every call to it and adds
// ISRC-based helpers (AddTrackByISRC, PlayFromInfo) on top. ISRC lookups go through an optional [TrackCache].
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Spotify Web API with a bearer token from an [oauth2.TokenSource].
// Paginated collections carry absolute next URLs.
//
// # Apple Music Implementation
//
// [AppleMusicService] sends the developer token on every request and the Music-User-Token on me/ endpoints.
// Paginated collections carry host-relative next paths, resolved against the API host.
// Apple Music has no now-playing endpoint: the current track is the most recently played one.
//
// # Transport
//
// Requests go through a [Transport]. [HTTPTransport] adds client-side rate limiting, prometheus metrics and debug logging.
// Credentials are read before a request is built, so a missing token never reaches the network.
//
// # Pagination
//
// [Drain] follows next-page cursors sequentially. A failure on any page discards the items gathered so far.
//
// # Error Handling
//
// Every returned error wraps exactly one classification sentinel from the shared package:
//   - [shared.ErrMissingCredential] : no token configured
//   - [shared.ErrMalformedRequest] : invalid ids, terms or options
//   - [shared.ErrTransport] : the request never produced a response
//   - [shared.ErrInvalidStatus] : non-2xx response, carried by [shared.StatusError]
//   - [shared.ErrNoData] : empty body or nothing found
//   - [shared.ErrDecodeFailure] : the body did not match the expected shape
//   - [shared.ErrUnsupported] : capability not offered by the provider
//
// # API Mappings
//
// Provider responses are converted to models.Track, models.Album, models.Artist and models.Playlist:
//   - Spotify: track context is the track URI, ISRC comes from external_ids
//   - Apple Music: track context is the catalog id, artwork templates are resolved to [ArtworkResolution]
//
// Unknown values are empty strings. Apple resources without attributes are skipped.
package services
