// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

type spotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyArtist represents a Spotify artist. Simplified artists carry no images.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Artists     []SpotifyArtist     `json:"artists"`
	Album       SpotifyAlbum        `json:"album"`
	DurationMS  int                 `json:"duration_ms"`
	Explicit    bool                `json:"explicit"`
	ExternalIDs *spotifyExternalIDs `json:"external_ids"`
	IsLocal     bool                `json:"is_local"`
	URI         string              `json:"uri"`
}

// SpotifyOwner is the user owning a playlist.
type SpotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a simplified Spotify playlist.
type SpotifyPlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Owner         SpotifyOwner   `json:"owner"`
	Public        *bool          `json:"public"`
	Collaborative bool           `json:"collaborative"`
	Images        []SpotifyImage `json:"images"`
	SnapshotID    string         `json:"snapshot_id"`
	URI           string         `json:"uri"`
}

// SpotifyPlaylistItem is a track within a playlist. Track is nil for removed or unavailable items.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaging is the Spotify paging object wrapping every paginated collection.
//
// Next and Previous are absolute URLs, or null on the last/first page.
type SpotifyPaging[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Next     *string `json:"next"`
	Offset   int     `json:"offset"`
	Previous *string `json:"previous"`
	Total    *int    `json:"total"`
}

// SpotifySearchResponse is the body of GET /search. Collections not requested are absent.
//
// Playlist entries may be null.
type SpotifySearchResponse struct {
	Tracks    *SpotifyPaging[SpotifyTrack]     `json:"tracks"`
	Albums    *SpotifyPaging[SpotifyAlbum]     `json:"albums"`
	Artists   *SpotifyPaging[SpotifyArtist]    `json:"artists"`
	Playlists *SpotifyPaging[*SpotifyPlaylist] `json:"playlists"`
}

// SpotifyPlayHistory is one entry of the recently-played history.
type SpotifyPlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// SpotifyCurrentlyPlaying is the body of GET /me/player/currently-playing.
// Item is null for ads or while nothing is playing.
type SpotifyCurrentlyPlaying struct {
	IsPlaying            bool          `json:"is_playing"`
	ProgressMS           *int          `json:"progress_ms"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	Item                 *SpotifyTrack `json:"item"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     string         `json:"country"`
	Product     string         `json:"product"`
	Images      []SpotifyImage `json:"images"`
}

// spotifySeveralTracks is the body of GET /tracks?ids=. Unknown ids come back as null.
type spotifySeveralTracks struct {
	Tracks []*SpotifyTrack `json:"tracks"`
}

type spotifyTrackURI struct {
	URI string `json:"uri"`
}

// spotifyRemoveTracks is the body of DELETE /playlists/{id}/tracks.
type spotifyRemoveTracks struct {
	Tracks []spotifyTrackURI `json:"tracks"`
}

// spotifyPlayRequest is the body of PUT /me/player/play.
type spotifyPlayRequest struct {
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
}
