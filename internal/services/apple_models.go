// Apple Music API response types based on https://developer.apple.com/documentation/applemusicapi
package services

// Resource is the Apple Music envelope shared by songs, albums, artists, playlists and curators.
//
// Attributes is nil when the API omits the payload (for example on relationship stubs).
type Resource[A any] struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Href       string `json:"href"`
	Attributes *A     `json:"attributes"`
}

// RelatedResource is a [Resource] that also carries typed relationships.
type RelatedResource[A, R any] struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Href          string `json:"href"`
	Attributes    *A     `json:"attributes"`
	Relationships *R     `json:"relationships"`
}

// Relationship is a possibly paginated list of related resources.
// Next is a host-relative path such as "/v1/me/library/playlists/p.1/tracks?offset=100".
type Relationship[T any] struct {
	Data []T    `json:"data"`
	Href string `json:"href"`
	Next string `json:"next"`
}

// ResponseRoot is the top-level document of most Apple Music responses.
//
// Data is nil when the key is absent or null and an empty slice when the API sent [].
type ResponseRoot[T any] struct {
	Data []T    `json:"data"`
	Href string `json:"href"`
	Next string `json:"next"`
}

// Artwork is an image template. URL contains {w} and {h} placeholders.
type Artwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PlayParameters identify a playable item. For library items CatalogID names the catalog equivalent.
type PlayParameters struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	CatalogID string `json:"catalogId"`
	IsLibrary bool   `json:"isLibrary"`
}

// EditorialNotes are the long and short descriptions of a catalog item.
type EditorialNotes struct {
	Standard string `json:"standard"`
	Short    string `json:"short"`
}

// SongAttributes covers catalog songs, library songs and history items. Library songs have no ISRC.
type SongAttributes struct {
	Name             string          `json:"name"`
	AlbumName        string          `json:"albumName"`
	ArtistName       string          `json:"artistName"`
	ISRC             *string         `json:"isrc"`
	Artwork          *Artwork        `json:"artwork"`
	PlayParams       *PlayParameters `json:"playParams"`
	DurationInMillis int             `json:"durationInMillis"`
	URL              string          `json:"url"`
}

// AlbumAttributes describes a catalog or library album.
type AlbumAttributes struct {
	Name       string          `json:"name"`
	ArtistName string          `json:"artistName"`
	Artwork    *Artwork        `json:"artwork"`
	PlayParams *PlayParameters `json:"playParams"`
	TrackCount int             `json:"trackCount"`
	URL        string          `json:"url"`
}

// ArtistAttributes describes a catalog artist.
type ArtistAttributes struct {
	Name       string   `json:"name"`
	GenreNames []string `json:"genreNames"`
	Artwork    *Artwork `json:"artwork"`
	URL        string   `json:"url"`
}

// PlaylistAttributes describes a catalog playlist.
type PlaylistAttributes struct {
	Name         string          `json:"name"`
	Description  *EditorialNotes `json:"description"`
	CuratorName  string          `json:"curatorName"`
	PlaylistType string          `json:"playlistType"`
	Artwork      *Artwork        `json:"artwork"`
	PlayParams   *PlayParameters `json:"playParams"`
	URL          string          `json:"url"`
}

// LibraryPlaylistAttributes describes a playlist in the user's library.
type LibraryPlaylistAttributes struct {
	Name        string          `json:"name"`
	Description *EditorialNotes `json:"description"`
	CanEdit     bool            `json:"canEdit"`
	Artwork     *Artwork        `json:"artwork"`
	PlayParams  *PlayParameters `json:"playParams"`
}

// CuratorAttributes describes the curator of a catalog playlist.
type CuratorAttributes struct {
	Name    string   `json:"name"`
	Artwork *Artwork `json:"artwork"`
	URL     string   `json:"url"`
}

type (
	AppleSong            = Resource[SongAttributes]
	AppleAlbum           = Resource[AlbumAttributes]
	AppleArtist          = Resource[ArtistAttributes]
	AppleCurator         = Resource[CuratorAttributes]
	AppleLibraryPlaylist = Resource[LibraryPlaylistAttributes]
	ApplePlaylist        = RelatedResource[PlaylistAttributes, PlaylistRelationships]
)

// PlaylistRelationships are included on catalog playlists. Tracks may be paginated.
type PlaylistRelationships struct {
	Curator *Relationship[AppleCurator] `json:"curator"`
	Tracks  *Relationship[AppleSong]    `json:"tracks"`
}

// AppleSearchResults holds one relationship per requested type. Types without matches are absent.
type AppleSearchResults struct {
	Songs     *Relationship[AppleSong]     `json:"songs"`
	Albums    *Relationship[AppleAlbum]    `json:"albums"`
	Artists   *Relationship[AppleArtist]   `json:"artists"`
	Playlists *Relationship[ApplePlaylist] `json:"playlists"`
}

// AppleSearchResponse is the body of GET /catalog/{storefront}/search.
type AppleSearchResponse struct {
	Results AppleSearchResults `json:"results"`
}

// AppleChart is one chart of a GET /catalog/{storefront}/charts response.
type AppleChart[T any] struct {
	Chart string `json:"chart"`
	Name  string `json:"name"`
	Data  []T    `json:"data"`
	Href  string `json:"href"`
	Next  string `json:"next"`
}

// AppleChartsResponse is the body of GET /catalog/{storefront}/charts?types=songs.
type AppleChartsResponse struct {
	Results struct {
		Songs []AppleChart[AppleSong] `json:"songs"`
	} `json:"results"`
}

// appleResourceRef identifies a resource in a relationship mutation body.
type appleResourceRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// appleAddTracks is the body of POST /me/library/playlists/{id}/tracks.
type appleAddTracks struct {
	Data []appleResourceRef `json:"data"`
}
