package services

import (
	"github.com/desertthunder/socially/internal/models"
)

func firstImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func trackFromSpotify(t SpotifyTrack) models.Track {
	track := models.Track{
		Album:    t.Album.Name,
		Name:     t.Name,
		Context:  t.URI,
		ImageURL: firstImage(t.Album.Images),
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.ExternalIDs != nil {
		track.ISRC = t.ExternalIDs.ISRC
	}
	return track
}

func artistFromSpotify(a SpotifyArtist) models.Artist {
	return models.Artist{Name: a.Name, ID: a.ID, ImageURL: firstImage(a.Images)}
}

func albumFromSpotify(a SpotifyAlbum) models.Album {
	album := models.Album{
		Context:  a.URI,
		ID:       a.ID,
		Name:     a.Name,
		ImageURL: firstImage(a.Images),
	}
	if len(a.Artists) > 0 {
		album.Artist = models.Artist{Name: a.Artists[0].Name, ID: a.Artists[0].ID}
	}
	return album
}

func playlistFromSpotify(p SpotifyPlaylist) models.Playlist {
	return models.Playlist{
		Context:     p.URI,
		ID:          p.ID,
		Name:        p.Name,
		ImageURL:    firstImage(p.Images),
		Description: p.Description,
		AuthorName:  p.Owner.DisplayName,
		AuthorID:    p.Owner.ID,
	}
}

func tracksFromSpotify(items []SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		tracks = append(tracks, trackFromSpotify(t))
	}
	return tracks
}

// tracksFromSpotifyRefs skips null entries.
func tracksFromSpotifyRefs(items []*SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, t := range items {
		if t == nil {
			continue
		}
		tracks = append(tracks, trackFromSpotify(*t))
	}
	return tracks
}

// tracksFromPlaylistItems skips items whose track is null.
func tracksFromPlaylistItems(items []SpotifyPlaylistItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, trackFromSpotify(*item.Track))
	}
	return tracks
}

func tracksFromPlayHistory(items []SpotifyPlayHistory) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, trackFromSpotify(item.Track))
	}
	return tracks
}

func artistsFromSpotify(items []SpotifyArtist) []models.Artist {
	artists := make([]models.Artist, 0, len(items))
	for _, a := range items {
		artists = append(artists, artistFromSpotify(a))
	}
	return artists
}

func albumsFromSpotify(items []SpotifyAlbum) []models.Album {
	albums := make([]models.Album, 0, len(items))
	for _, a := range items {
		albums = append(albums, albumFromSpotify(a))
	}
	return albums
}

// playlistsFromSpotify skips null entries.
func playlistsFromSpotify(items []*SpotifyPlaylist) []models.Playlist {
	playlists := make([]models.Playlist, 0, len(items))
	for _, p := range items {
		if p == nil {
			continue
		}
		playlists = append(playlists, playlistFromSpotify(*p))
	}
	return playlists
}

// searchResultFromSpotify normalizes each collection independently; absent collections are empty.
func searchResultFromSpotify(r SpotifySearchResponse) *models.SearchResult {
	result := models.NewSearchResult()
	if r.Tracks != nil {
		result.Tracks = tracksFromSpotify(r.Tracks.Items)
	}
	if r.Albums != nil {
		result.Albums = albumsFromSpotify(r.Albums.Items)
	}
	if r.Artists != nil {
		result.Artists = artistsFromSpotify(r.Artists.Items)
	}
	if r.Playlists != nil {
		result.Playlists = playlistsFromSpotify(r.Playlists.Items)
	}
	return result
}

// pageFromSpotify converts a paging object, mapping its items with convert.
func pageFromSpotify[S, T any](p SpotifyPaging[S], convert func([]S) []T) *models.Page[T] {
	page := &models.Page[T]{
		Href:  p.Href,
		Items: convert(p.Items),
		Limit: p.Limit,
		Total: p.Total,
	}
	if p.Next != nil {
		page.Next = *p.Next
	}
	if p.Previous != nil {
		page.Previous = *p.Previous
	}
	return page
}
