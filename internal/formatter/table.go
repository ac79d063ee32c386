package formatter

import (
	"io"

	"github.com/desertthunder/socially/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

const maxColumnWidth = 48

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)

	configs := make([]table.ColumnConfig, 0, len(header))
	for i := range header {
		configs = append(configs, table.ColumnConfig{Number: i + 1, WidthMax: maxColumnWidth})
	}
	t.SetColumnConfigs(configs)
	return t
}

// RenderTracks writes tracks as a numbered table to w.
func RenderTracks(w io.Writer, tracks []models.Track) {
	t := newTable(w, table.Row{"#", "Name", "Artist", "Album", "ISRC", "Context"})
	for i, track := range tracks {
		t.AppendRow(table.Row{i + 1, track.Name, track.Artist, track.Album, track.ISRC, track.Context})
	}
	t.AppendFooter(table.Row{"", "Total", len(tracks)})
	t.Render()
}

// RenderPlaylists writes playlists as a numbered table to w.
func RenderPlaylists(w io.Writer, playlists []models.Playlist) {
	t := newTable(w, table.Row{"#", "Name", "Author", "Playlist ID"})
	for i, pl := range playlists {
		t.AppendRow(table.Row{i + 1, pl.Name, pl.AuthorName, pl.ID})
	}
	t.AppendFooter(table.Row{"", "Total", len(playlists)})
	t.Render()
}

// RenderArtists writes artists as a numbered table to w.
func RenderArtists(w io.Writer, artists []models.Artist) {
	t := newTable(w, table.Row{"#", "Name", "Artist ID"})
	for i, artist := range artists {
		t.AppendRow(table.Row{i + 1, artist.Name, artist.ID})
	}
	t.AppendFooter(table.Row{"", "Total", len(artists)})
	t.Render()
}

// RenderAlbums writes albums as a numbered table to w.
func RenderAlbums(w io.Writer, albums []models.Album) {
	t := newTable(w, table.Row{"#", "Name", "Artist", "Album ID"})
	for i, album := range albums {
		t.AppendRow(table.Row{i + 1, album.Name, album.Artist.Name, album.ID})
	}
	t.AppendFooter(table.Row{"", "Total", len(albums)})
	t.Render()
}

// RenderSearchResult renders every non-empty collection of res, tracks first.
func RenderSearchResult(w io.Writer, res *models.SearchResult) {
	if res == nil {
		return
	}
	if len(res.Tracks) > 0 {
		RenderTracks(w, res.Tracks)
	}
	if len(res.Albums) > 0 {
		RenderAlbums(w, res.Albums)
	}
	if len(res.Artists) > 0 {
		RenderArtists(w, res.Artists)
	}
	if len(res.Playlists) > 0 {
		RenderPlaylists(w, res.Playlists)
	}
}
