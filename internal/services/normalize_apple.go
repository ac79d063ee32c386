package services

import (
	"strings"

	"github.com/desertthunder/socially/internal/models"
)

// ArtworkResolution replaces the {w}x{h} placeholder of Apple Music artwork templates.
const ArtworkResolution = "640x640"

var artworkReplacer = strings.NewReplacer(
	"{w}x{h}bb", ArtworkResolution+"bb",
	"{w}x{h}cc", ArtworkResolution+"cc",
)

// ResolveArtworkURL substitutes the fixed resolution into an artwork template. Other characters are untouched.
func ResolveArtworkURL(template string) string {
	return artworkReplacer.Replace(template)
}

func artworkURL(a *Artwork) string {
	if a == nil {
		return ""
	}
	return ResolveArtworkURL(a.URL)
}

// appleTrackContext is the catalog id used for playback and playlist insertion.
// Library songs map to their catalog equivalent when Apple reports one.
func appleTrackContext(r AppleSong) string {
	if strings.HasPrefix(r.Type, "library-") && r.Attributes.PlayParams != nil && r.Attributes.PlayParams.CatalogID != "" {
		return r.Attributes.PlayParams.CatalogID
	}
	return r.ID
}

// trackFromApple maps a song resource; ok is false when the resource has no attributes.
func trackFromApple(r AppleSong) (models.Track, bool) {
	if r.Attributes == nil {
		return models.Track{}, false
	}
	a := r.Attributes
	track := models.Track{
		Album:    a.AlbumName,
		Artist:   a.ArtistName,
		Name:     a.Name,
		Context:  appleTrackContext(r),
		ImageURL: artworkURL(a.Artwork),
	}
	if a.ISRC != nil {
		track.ISRC = *a.ISRC
	}
	return track, true
}

func albumFromApple(r AppleAlbum) (models.Album, bool) {
	if r.Attributes == nil {
		return models.Album{}, false
	}
	return models.Album{
		ID:       r.ID,
		Name:     r.Attributes.Name,
		ImageURL: artworkURL(r.Attributes.Artwork),
		Artist:   models.Artist{Name: r.Attributes.ArtistName},
	}, true
}

func artistFromApple(r AppleArtist) (models.Artist, bool) {
	if r.Attributes == nil {
		return models.Artist{}, false
	}
	return models.Artist{
		Name:     r.Attributes.Name,
		ID:       r.ID,
		ImageURL: artworkURL(r.Attributes.Artwork),
	}, true
}

func description(n *EditorialNotes) string {
	if n == nil {
		return ""
	}
	if n.Standard != "" {
		return n.Standard
	}
	return n.Short
}

// playlistFromAppleCatalog maps a catalog playlist. The curator is the author; catalog playlists have no author id.
func playlistFromAppleCatalog(r ApplePlaylist) (models.Playlist, bool) {
	if r.Attributes == nil {
		return models.Playlist{}, false
	}
	a := r.Attributes
	p := models.Playlist{
		ID:          r.ID,
		Name:        a.Name,
		ImageURL:    artworkURL(a.Artwork),
		Description: description(a.Description),
		AuthorName:  a.CuratorName,
	}
	if p.AuthorName == "" && r.Relationships != nil && r.Relationships.Curator != nil {
		for _, c := range r.Relationships.Curator.Data {
			if c.Attributes != nil && c.Attributes.Name != "" {
				p.AuthorName = c.Attributes.Name
				break
			}
		}
	}
	return p, true
}

// playlistFromAppleLibrary maps a library playlist. Library playlists carry no ownership.
func playlistFromAppleLibrary(r AppleLibraryPlaylist) (models.Playlist, bool) {
	if r.Attributes == nil {
		return models.Playlist{}, false
	}
	return models.Playlist{
		ID:          r.ID,
		Name:        r.Attributes.Name,
		ImageURL:    artworkURL(r.Attributes.Artwork),
		Description: description(r.Attributes.Description),
	}, true
}

// collect maps every item with convert, keeping only the ones it can map.
func collect[S, T any](items []S, convert func(S) (T, bool)) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v, ok := convert(item); ok {
			out = append(out, v)
		}
	}
	return out
}

func tracksFromApple(items []AppleSong) []models.Track {
	return collect(items, trackFromApple)
}

func libraryPlaylistsFromApple(items []AppleLibraryPlaylist) []models.Playlist {
	return collect(items, playlistFromAppleLibrary)
}

// artistsFromHistory builds an artist list from played songs, keeping the first song seen per artist name.
//
// The id is the song's play-parameters id, not an artist id.
func artistsFromHistory(items []AppleSong) []models.Artist {
	artists := make([]models.Artist, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		a := item.Attributes
		if a == nil || a.ArtistName == "" || seen[a.ArtistName] {
			continue
		}
		seen[a.ArtistName] = true

		artist := models.Artist{Name: a.ArtistName, ImageURL: artworkURL(a.Artwork)}
		if a.PlayParams != nil {
			artist.ID = a.PlayParams.ID
		}
		artists = append(artists, artist)
	}
	return artists
}

// artistsFromChart derives artists from the first song chart, with the same rules as [artistsFromHistory].
func artistsFromChart(r AppleChartsResponse) []models.Artist {
	if len(r.Results.Songs) == 0 {
		return []models.Artist{}
	}
	return artistsFromHistory(r.Results.Songs[0].Data)
}

func searchResultFromApple(r AppleSearchResponse) *models.SearchResult {
	result := models.NewSearchResult()
	if s := r.Results.Songs; s != nil {
		result.Tracks = tracksFromApple(s.Data)
	}
	if s := r.Results.Albums; s != nil {
		result.Albums = collect(s.Data, albumFromApple)
	}
	if s := r.Results.Artists; s != nil {
		result.Artists = collect(s.Data, artistFromApple)
	}
	if s := r.Results.Playlists; s != nil {
		result.Playlists = collect(s.Data, playlistFromAppleCatalog)
	}
	return result
}

// pageFromApple converts a response document; Next stays host-relative and is resolved when fetched.
func pageFromApple[S, T any](root ResponseRoot[S], convert func([]S) []T) *models.Page[T] {
	return &models.Page[T]{
		Href:  root.Href,
		Items: convert(root.Data),
		Limit: len(root.Data),
		Next:  root.Next,
	}
}
