// Apple Music API implementation of [MusicProvider]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
	"golang.org/x/oauth2"
)

const (
	appleBaseURL           = "https://api.music.apple.com/v1/"
	appleDefaultStorefront = "us"

	appleLibraryPageSize = 100
	appleSearchMaxLimit  = 25
	appleDefaultLimit    = 10
	appleRecentMaxLimit  = 30
	appleChartMaxLimit   = 50
	appleChartLimit      = 20

	appleCatalogPlaylistPrefix = "pl."
	appleUserTokenHeader       = "Music-User-Token"
)

// AppleMusicOpts configures [NewAppleMusicService].
type AppleMusicOpts struct {
	BaseURL        string             // defaults to https://api.music.apple.com/v1/
	DeveloperToken oauth2.TokenSource // sent on every request
	UserToken      string             // required by me/ endpoints
	Storefront     string             // defaults to "us"
	Transport      Transport
	Logger         *log.Logger
}

// AppleMusicService implements [MusicProvider] for the Apple Music API.
//
// Apple Music has no remote-control, user lookup or playlist deletion endpoints,
// so those capabilities fail with [shared.ErrUnsupported].
type AppleMusicService struct {
	client     *apiClient
	developer  oauth2.TokenSource
	userToken  string
	storefront string
	logger     *log.Logger
}

// NewAppleMusicService creates an Apple Music provider from opts.
func NewAppleMusicService(opts AppleMusicOpts) (*AppleMusicService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DefaultLogger()
	}
	logger = shared.WithLogger(logger, "provider", string(models.ProviderAppleMusic))

	base := opts.BaseURL
	if base == "" {
		base = appleBaseURL
	}

	client, err := newAPIClient(string(models.ProviderAppleMusic), base, opts.Transport, logger)
	if err != nil {
		return nil, err
	}

	storefront := strings.ToLower(strings.TrimSpace(opts.Storefront))
	if storefront == "" {
		storefront = appleDefaultStorefront
	}

	return &AppleMusicService{
		client:     client,
		developer:  opts.DeveloperToken,
		userToken:  strings.TrimSpace(opts.UserToken),
		storefront: storefront,
		logger:     logger,
	}, nil
}

func (s *AppleMusicService) Name() string { return "Apple Music" }
func (s *AppleMusicService) Kind() models.ProviderKind { return models.ProviderAppleMusic }

// Storefront returns the catalog region used for catalog requests.
func (s *AppleMusicService) Storefront() string { return s.storefront }

func (s *AppleMusicService) catalogHeaders() (http.Header, error) {
	token, err := bearer(s.developer, "apple music developer token")
	if err != nil {
		return nil, err
	}
	return http.Header{"Authorization": {"Bearer " + token}}, nil
}

// userHeaders adds the user token required by me/ endpoints.
func (s *AppleMusicService) userHeaders() (http.Header, error) {
	hdr, err := s.catalogHeaders()
	if err != nil {
		return nil, err
	}
	if s.userToken == "" {
		return nil, fmt.Errorf("%w: apple music user token", shared.ErrMissingCredential)
	}
	hdr.Set(appleUserTokenHeader, s.userToken)
	return hdr, nil
}

func (s *AppleMusicService) catalogPath(rest string) string {
	return "catalog/" + url.PathEscape(s.storefront) + "/" + rest
}

// drainApple follows the next links of a response document chain starting at path.
func drainApple[S, T any](ctx context.Context, s *AppleMusicService, path string, q url.Values, convert func([]S) []T) ([]T, error) {
	fetch := func(ctx context.Context, target string, q url.Values) (*models.Page[T], error) {
		hdr, err := s.userHeaders()
		if err != nil {
			return nil, err
		}
		root, err := getJSON[ResponseRoot[S]](ctx, s.client, target, q, hdr)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("fetched page", "href", root.Href, "items", len(root.Data), "has_next", root.Next != "")
		return pageFromApple(root, convert), nil
	}

	return Drain(ctx,
		func(ctx context.Context) (*models.Page[T], error) { return fetch(ctx, path, q) },
		func(ctx context.Context, cursor string) (*models.Page[T], error) { return fetch(ctx, cursor, nil) },
	)
}

// Search queries songs, albums, artists and playlists in the storefront catalog.
func (s *AppleMusicService) Search(ctx context.Context, term string, limit int) (*models.SearchResult, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: empty search term", shared.ErrMalformedRequest)
	}

	hdr, err := s.catalogHeaders()
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"term":  {term},
		"types": {"songs,albums,artists,playlists"},
		"limit": {strconv.Itoa(clamp(limit, appleDefaultLimit, appleSearchMaxLimit))},
	}

	resp, err := getJSON[AppleSearchResponse](ctx, s.client, s.catalogPath("search"), q, hdr)
	if err != nil {
		return nil, err
	}
	return searchResultFromApple(resp), nil
}

// GetPlaylists retrieves every playlist in the user's library.
func (s *AppleMusicService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	q := url.Values{"limit": {strconv.Itoa(appleLibraryPageSize)}}
	return drainApple(ctx, s, "me/library/playlists", q, libraryPlaylistsFromApple)
}

func (s *AppleMusicService) GetUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	return nil, unsupported(s.Name(), "fetching another user's playlists")
}

// GetAllTracksForPlaylist retrieves every track of a library ("p.") or catalog ("pl.") playlist.
func (s *AppleMusicService) GetAllTracksForPlaylist(ctx context.Context, playlistID string) ([]models.Track, error) {
	seg, err := pathSegment("playlist id", playlistID)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(playlistID, appleCatalogPlaylistPrefix) {
		return s.catalogPlaylistTracks(ctx, seg)
	}

	q := url.Values{"limit": {strconv.Itoa(appleLibraryPageSize)}}
	return drainApple(ctx, s, "me/library/playlists/"+seg+"/tracks", q, tracksFromApple)
}

// catalogPlaylistTracks reads the included tracks relationship and follows its next links.
func (s *AppleMusicService) catalogPlaylistTracks(ctx context.Context, seg string) ([]models.Track, error) {
	first := func(ctx context.Context) (*models.Page[models.Track], error) {
		hdr, err := s.catalogHeaders()
		if err != nil {
			return nil, err
		}

		root, err := getJSON[ResponseRoot[ApplePlaylist]](ctx, s.client, s.catalogPath("playlists/"+seg), url.Values{"include": {"tracks"}}, hdr)
		if err != nil {
			return nil, err
		}
		if len(root.Data) == 0 {
			return nil, fmt.Errorf("%w: playlist %s not found", shared.ErrNoData, seg)
		}

		rel := root.Data[0].Relationships
		if rel == nil || rel.Tracks == nil {
			return &models.Page[models.Track]{Href: root.Href, Items: []models.Track{}}, nil
		}
		s.logger.Debug("fetched page", "href", rel.Tracks.Href, "items", len(rel.Tracks.Data), "has_next", rel.Tracks.Next != "")
		return &models.Page[models.Track]{
			Href:  rel.Tracks.Href,
			Items: tracksFromApple(rel.Tracks.Data),
			Limit: len(rel.Tracks.Data),
			Next:  rel.Tracks.Next,
		}, nil
	}

	next := func(ctx context.Context, cursor string) (*models.Page[models.Track], error) {
		hdr, err := s.catalogHeaders()
		if err != nil {
			return nil, err
		}
		root, err := getJSON[ResponseRoot[AppleSong]](ctx, s.client, cursor, nil, hdr)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("fetched page", "href", root.Href, "items", len(root.Data), "has_next", root.Next != "")
		return pageFromApple(root, tracksFromApple), nil
	}

	return Drain(ctx, first, next)
}

// AddTrackToPlaylist appends the catalog song trackContext to a library playlist.
func (s *AppleMusicService) AddTrackToPlaylist(ctx context.Context, playlistID, trackContext string) error {
	seg, err := pathSegment("playlist id", playlistID)
	if err != nil {
		return err
	}
	if _, err := pathSegment("track context", trackContext); err != nil {
		return err
	}

	hdr, err := s.userHeaders()
	if err != nil {
		return err
	}

	body := appleAddTracks{Data: []appleResourceRef{{ID: trackContext, Type: "songs"}}}
	_, err = s.client.send(ctx, http.MethodPost, "me/library/playlists/"+seg+"/tracks", nil, hdr, body)
	return err
}

func (s *AppleMusicService) DeleteTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	return unsupported(s.Name(), "removing playlist tracks")
}

// GetTopArtists derives artists from the listening history, keeping at most opts.Limit when it is set.
// When the history is empty the storefront's top song chart is used instead.
func (s *AppleMusicService) GetTopArtists(ctx context.Context, opts TopOptions) ([]models.Artist, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	history, err := s.recentlyPlayed(ctx, appleRecentMaxLimit)
	if err != nil && !errors.Is(err, shared.ErrNoData) {
		return nil, err
	}

	if artists := artistsFromHistory(history); len(artists) > 0 {
		if opts.Limit > 0 && len(artists) > opts.Limit {
			artists = artists[:opts.Limit]
		}
		return artists, nil
	}

	s.logger.Debug("listening history is empty, using charts")

	hdr, err := s.catalogHeaders()
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"types": {"songs"},
		"limit": {strconv.Itoa(clamp(opts.Limit, appleChartLimit, appleChartMaxLimit))},
	}
	charts, err := getJSON[AppleChartsResponse](ctx, s.client, s.catalogPath("charts"), q, hdr)
	if err != nil {
		return nil, err
	}
	return artistsFromChart(charts), nil
}

func (s *AppleMusicService) GetTopTracks(ctx context.Context, opts TopOptions) ([]models.Track, error) {
	return nil, unsupported(s.Name(), "top tracks")
}

func (s *AppleMusicService) recentlyPlayed(ctx context.Context, limit int) ([]AppleSong, error) {
	hdr, err := s.userHeaders()
	if err != nil {
		return nil, err
	}

	q := url.Values{"limit": {strconv.Itoa(clamp(limit, appleDefaultLimit, appleRecentMaxLimit))}}
	root, err := getJSON[ResponseRoot[AppleSong]](ctx, s.client, "me/recent/played/tracks", q, hdr)
	if err != nil {
		return nil, err
	}
	return root.Data, nil
}

// GetRecentlyPlayed returns the listening history, newest first. Apple returns at most 30 items.
func (s *AppleMusicService) GetRecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	items, err := s.recentlyPlayed(ctx, limit)
	if err != nil {
		return nil, err
	}
	return tracksFromApple(items), nil
}

// GetCurrentTrack returns the most recently played track.
//
// Apple Music has no now-playing endpoint. The history item is refreshed from the catalog
// so the result carries an ISRC. If that lookup fails the history item is returned without one.
func (s *AppleMusicService) GetCurrentTrack(ctx context.Context) (*models.Track, error) {
	items, err := s.recentlyPlayed(ctx, 1)
	if err != nil {
		return nil, err
	}

	var latest *AppleSong
	for i := range items {
		if items[i].Attributes != nil {
			latest = &items[i]
			break
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no recently played track", shared.ErrNoData)
	}

	track, _ := trackFromApple(*latest)
	if track.ISRC != "" || !hasCatalogID(*latest) {
		return &track, nil
	}

	song, err := s.catalogSong(ctx, track.Context)
	if err != nil {
		s.logger.Debug("catalog lookup failed, using history item", "id", track.Context, "error", err)
		return &track, nil
	}
	return song, nil
}

// hasCatalogID reports whether a history item can be looked up in the catalog.
func hasCatalogID(r AppleSong) bool {
	if !strings.HasPrefix(r.Type, "library-") {
		return r.ID != ""
	}
	return r.Attributes != nil && r.Attributes.PlayParams != nil && r.Attributes.PlayParams.CatalogID != ""
}

func (s *AppleMusicService) catalogSong(ctx context.Context, id string) (*models.Track, error) {
	seg, err := pathSegment("song id", id)
	if err != nil {
		return nil, err
	}
	hdr, err := s.catalogHeaders()
	if err != nil {
		return nil, err
	}

	root, err := getJSON[ResponseRoot[AppleSong]](ctx, s.client, s.catalogPath("songs/"+seg), nil, hdr)
	if err != nil {
		return nil, err
	}

	tracks := tracksFromApple(root.Data)
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: song %s not found", shared.ErrNoData, id)
	}
	return &tracks[0], nil
}

// FindTrackByISRC looks isrc up in the countryCode catalog, or the configured storefront when empty.
func (s *AppleMusicService) FindTrackByISRC(ctx context.Context, isrc, countryCode string) (*models.Track, error) {
	if strings.TrimSpace(isrc) == "" {
		return nil, fmt.Errorf("%w: empty isrc", shared.ErrMalformedRequest)
	}

	hdr, err := s.catalogHeaders()
	if err != nil {
		return nil, err
	}

	storefront := strings.ToLower(countryCode)
	if storefront == "" {
		storefront = s.storefront
	}

	path := "catalog/" + url.PathEscape(storefront) + "/songs"
	root, err := getJSON[ResponseRoot[AppleSong]](ctx, s.client, path, url.Values{"filter[isrc]": {isrc}}, hdr)
	if err != nil {
		return nil, err
	}

	tracks := tracksFromApple(root.Data)
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no track with isrc %s", shared.ErrNoData, isrc)
	}
	return &tracks[0], nil
}

func (s *AppleMusicService) Playback(ctx context.Context, action models.PlaybackAction) error {
	return unsupported(s.Name(), "playback control")
}

func (s *AppleMusicService) PlayTrack(ctx context.Context, trackContext string) error {
	return unsupported(s.Name(), "playback control")
}

func (s *AppleMusicService) CurrentUserID(ctx context.Context) (string, error) {
	return "", unsupported(s.Name(), "user lookup")
}
