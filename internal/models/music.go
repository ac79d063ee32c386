package models

// Track is a single song as seen by any provider.
//
// Context is the provider playback token (a Spotify URI or an Apple Music catalog id).
// ISRC is empty when the provider did not report one.
type Track struct {
	Album    string `json:"album"`
	Artist   string `json:"artist"`
	Name     string `json:"name"`
	ISRC     string `json:"isrc"`
	Context  string `json:"context"`
	ImageURL string `json:"image_url"`
}

// Album is an album with its primary artist.
//
// Context is empty for providers without a per-user album URI.
type Album struct {
	Context  string `json:"context"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Artist   Artist `json:"artist"`
}

// Artist is a performer.
//
// ID may be empty, or a play-parameters id, when built from history or chart data.
type Artist struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

// Playlist is a user or catalog playlist.
//
// Author fields are empty when the provider has no ownership concept for the playlist.
type Playlist struct {
	Context     string `json:"context"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	AuthorName  string `json:"author_name"`
	AuthorID    string `json:"author_id"`
}

// SearchResult groups the four collections returned by a catalog search.
type SearchResult struct {
	Albums    []Album    `json:"albums"`
	Playlists []Playlist `json:"playlists"`
	Artists   []Artist   `json:"artists"`
	Tracks    []Track    `json:"tracks"`
}

// NewSearchResult returns a SearchResult whose collections are all non-nil.
func NewSearchResult() *SearchResult {
	return &SearchResult{
		Albums:    []Album{},
		Playlists: []Playlist{},
		Artists:   []Artist{},
		Tracks:    []Track{},
	}
}

// Len returns the total number of items across all collections.
func (r *SearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Albums) + len(r.Playlists) + len(r.Artists) + len(r.Tracks)
}

// Page is one page of a cursor-paginated collection.
//
// Next and Previous are opaque cursors; the empty string means there is no such page.
// Total is nil when the provider does not report a count.
type Page[T any] struct {
	Href     string `json:"href"`
	Items    []T    `json:"items"`
	Limit    int    `json:"limit"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Total    *int   `json:"total,omitempty"`
}

// HasNext reports whether a next-page cursor is present.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != ""
}
