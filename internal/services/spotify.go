// Spotify Web API implementation of [MusicProvider]
package services

import (
	"context"
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
	spotifyBaseURL = "https://api.spotify.com/v1/"

	spotifyPlaylistPageSize = 50
	spotifyTrackPageSize    = 100
	spotifyMaxLimit         = 50
	spotifyDefaultLimit     = 20
	spotifyRecentLimit      = 10
)

// SpotifyOpts configures [NewSpotifyService].
type SpotifyOpts struct {
	BaseURL   string             // defaults to https://api.spotify.com/v1/
	Token     oauth2.TokenSource // bearer token; nil makes every call fail with shared.ErrMissingCredential
	Transport Transport
	Logger    *log.Logger
}

// SpotifyService implements [MusicProvider] for the Spotify Web API.
//
// The token source is fixed at construction. Swapping credentials means building a new service.
type SpotifyService struct {
	client *apiClient
	token  oauth2.TokenSource
	logger *log.Logger
}

// NewSpotifyService creates a Spotify provider from opts.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DefaultLogger()
	}
	logger = shared.WithLogger(logger, "provider", string(models.ProviderSpotify))

	base := opts.BaseURL
	if base == "" {
		base = spotifyBaseURL
	}

	client, err := newAPIClient(string(models.ProviderSpotify), base, opts.Transport, logger)
	if err != nil {
		return nil, err
	}

	return &SpotifyService{client: client, token: opts.Token, logger: logger}, nil
}

func (s *SpotifyService) Name() string { return "Spotify" }
func (s *SpotifyService) Kind() models.ProviderKind { return models.ProviderSpotify }

// headers builds the authorization header, failing before any request when no token is available.
func (s *SpotifyService) headers() (http.Header, error) {
	token, err := bearer(s.token, "spotify access token")
	if err != nil {
		return nil, err
	}
	return http.Header{"Authorization": {"Bearer " + token}}, nil
}

// drainSpotify follows a Spotify paging object chain starting at path.
func drainSpotify[S, T any](ctx context.Context, s *SpotifyService, path string, q url.Values, convert func([]S) []T) ([]T, error) {
	fetch := func(ctx context.Context, target string, q url.Values) (*models.Page[T], error) {
		hdr, err := s.headers()
		if err != nil {
			return nil, err
		}
		p, err := getJSON[SpotifyPaging[S]](ctx, s.client, target, q, hdr)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("fetched page", "href", p.Href, "items", len(p.Items), "has_next", p.Next != nil)
		return pageFromSpotify(p, convert), nil
	}

	return Drain(ctx,
		func(ctx context.Context) (*models.Page[T], error) { return fetch(ctx, path, q) },
		func(ctx context.Context, cursor string) (*models.Page[T], error) { return fetch(ctx, cursor, nil) },
	)
}

// Search queries tracks, albums, artists and playlists in one request.
func (s *SpotifyService) Search(ctx context.Context, term string, limit int) (*models.SearchResult, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: empty search term", shared.ErrMalformedRequest)
	}

	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"q":     {term},
		"type":  {"track,album,artist,playlist"},
		"limit": {strconv.Itoa(clamp(limit, spotifyDefaultLimit, spotifyMaxLimit))},
	}

	resp, err := getJSON[SpotifySearchResponse](ctx, s.client, "search", q, hdr)
	if err != nil {
		return nil, err
	}
	return searchResultFromSpotify(resp), nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	q := url.Values{"limit": {strconv.Itoa(spotifyPlaylistPageSize)}, "offset": {"0"}}
	return drainSpotify(ctx, s, "me/playlists", q, playlistsFromSpotify)
}

// GetUserPlaylists retrieves the public playlists of userID.
func (s *SpotifyService) GetUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	seg, err := pathSegment("user id", userID)
	if err != nil {
		return nil, err
	}
	q := url.Values{"limit": {strconv.Itoa(spotifyPlaylistPageSize)}}
	return drainSpotify(ctx, s, "users/"+seg+"/playlists", q, playlistsFromSpotify)
}

// GetAllTracksForPlaylist retrieves every track of a playlist. Removed and unavailable items are skipped.
func (s *SpotifyService) GetAllTracksForPlaylist(ctx context.Context, playlistID string) ([]models.Track, error) {
	seg, err := pathSegment("playlist id", playlistID)
	if err != nil {
		return nil, err
	}
	q := url.Values{"limit": {strconv.Itoa(spotifyTrackPageSize)}}
	return drainSpotify(ctx, s, "playlists/"+seg+"/tracks", q, tracksFromPlaylistItems)
}

// AddTrackToPlaylist appends the track URI trackContext to a playlist.
func (s *SpotifyService) AddTrackToPlaylist(ctx context.Context, playlistID, trackContext string) error {
	seg, err := pathSegment("playlist id", playlistID)
	if err != nil {
		return err
	}
	if _, err := pathSegment("track context", trackContext); err != nil {
		return err
	}

	hdr, err := s.headers()
	if err != nil {
		return err
	}

	_, err = s.client.send(ctx, http.MethodPost, "playlists/"+seg+"/tracks", url.Values{"uris": {trackContext}}, hdr, nil)
	return err
}

// DeleteTrackFromPlaylist removes every occurrence of a track. trackID may be a bare id or a track URI.
func (s *SpotifyService) DeleteTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	seg, err := pathSegment("playlist id", playlistID)
	if err != nil {
		return err
	}
	if _, err := pathSegment("track id", trackID); err != nil {
		return err
	}

	hdr, err := s.headers()
	if err != nil {
		return err
	}

	uri := trackID
	if !strings.HasPrefix(uri, "spotify:") {
		uri = "spotify:track:" + trackID
	}

	body := spotifyRemoveTracks{Tracks: []spotifyTrackURI{{URI: uri}}}
	_, err = s.client.send(ctx, http.MethodDelete, "playlists/"+seg+"/tracks", nil, hdr, body)
	return err
}

func topQuery(opts TopOptions, defaultRange models.TimeRange) url.Values {
	tr := opts.TimeRange
	if tr == "" {
		tr = defaultRange
	}
	return url.Values{
		"time_range": {string(tr)},
		"limit":      {strconv.Itoa(clamp(opts.Limit, spotifyDefaultLimit, spotifyMaxLimit))},
		"offset":     {strconv.Itoa(opts.Offset)},
	}
}

// GetTopArtists returns the user's top artists, long_term by default.
func (s *SpotifyService) GetTopArtists(ctx context.Context, opts TopOptions) ([]models.Artist, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	p, err := getJSON[SpotifyPaging[SpotifyArtist]](ctx, s.client, "me/top/artists", topQuery(opts, models.LongTerm), hdr)
	if err != nil {
		return nil, err
	}
	return artistsFromSpotify(p.Items), nil
}

// GetTopTracks returns the user's top tracks, medium_term by default.
func (s *SpotifyService) GetTopTracks(ctx context.Context, opts TopOptions) ([]models.Track, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	p, err := getJSON[SpotifyPaging[SpotifyTrack]](ctx, s.client, "me/top/tracks", topQuery(opts, models.MediumTerm), hdr)
	if err != nil {
		return nil, err
	}
	return tracksFromSpotify(p.Items), nil
}

// GetRecentlyPlayed returns the play history, newest first.
//
// History entries without an ISRC are re-fetched through GET /tracks so the result can be matched across providers.
func (s *SpotifyService) GetRecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	q := url.Values{"limit": {strconv.Itoa(clamp(limit, spotifyRecentLimit, spotifyMaxLimit))}}
	p, err := getJSON[SpotifyPaging[SpotifyPlayHistory]](ctx, s.client, "me/player/recently-played", q, hdr)
	if err != nil {
		return nil, err
	}

	var missing []string
	seen := map[string]bool{}
	for _, item := range p.Items {
		id := item.Track.ID
		if id == "" || seen[id] || (item.Track.ExternalIDs != nil && item.Track.ExternalIDs.ISRC != "") {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return tracksFromPlayHistory(p.Items), nil
	}

	full, err := s.severalTracks(ctx, missing)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]SpotifyTrack, len(full))
	for _, t := range full {
		if t != nil {
			byID[t.ID] = *t
		}
	}

	tracks := make([]models.Track, 0, len(p.Items))
	for _, item := range p.Items {
		if t, ok := byID[item.Track.ID]; ok {
			tracks = append(tracks, trackFromSpotify(t))
			continue
		}
		tracks = append(tracks, trackFromSpotify(item.Track))
	}
	return tracks, nil
}

// severalTracks retrieves up to 50 tracks by id.
func (s *SpotifyService) severalTracks(ctx context.Context, ids []string) ([]*SpotifyTrack, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track ids", shared.ErrMalformedRequest)
	}
	if len(ids) > spotifyMaxLimit {
		return nil, fmt.Errorf("%w: at most %d track ids", shared.ErrMalformedRequest, spotifyMaxLimit)
	}

	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	resp, err := getJSON[spotifySeveralTracks](ctx, s.client, "tracks", url.Values{"ids": {strings.Join(ids, ",")}}, hdr)
	if err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// GetCurrentTrack returns the playing track. Nothing playing (204) or a non-track item is [shared.ErrNoData].
func (s *SpotifyService) GetCurrentTrack(ctx context.Context) (*models.Track, error) {
	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	cp, err := getJSON[SpotifyCurrentlyPlaying](ctx, s.client, "me/player/currently-playing", nil, hdr)
	if err != nil {
		return nil, err
	}
	if cp.Item == nil {
		return nil, fmt.Errorf("%w: nothing is playing", shared.ErrNoData)
	}

	track := trackFromSpotify(*cp.Item)
	return &track, nil
}

// FindTrackByISRC searches the catalog for isrc, restricted to countryCode when given.
func (s *SpotifyService) FindTrackByISRC(ctx context.Context, isrc, countryCode string) (*models.Track, error) {
	if strings.TrimSpace(isrc) == "" {
		return nil, fmt.Errorf("%w: empty isrc", shared.ErrMalformedRequest)
	}

	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"q":     {"isrc:" + isrc},
		"type":  {"track"},
		"limit": {"1"},
	}
	if countryCode != "" {
		q.Set("market", strings.ToUpper(countryCode))
	}

	resp, err := getJSON[SpotifySearchResponse](ctx, s.client, "search", q, hdr)
	if err != nil {
		return nil, err
	}
	if resp.Tracks == nil || len(resp.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no track with isrc %s", shared.ErrNoData, isrc)
	}

	track := trackFromSpotify(resp.Tracks.Items[0])
	return &track, nil
}

// Playback sends a remote-control command to the active device.
func (s *SpotifyService) Playback(ctx context.Context, action models.PlaybackAction) error {
	var method, path string
	switch action {
	case models.PlaybackPlay:
		method, path = http.MethodPut, "me/player/play"
	case models.PlaybackPause:
		method, path = http.MethodPut, "me/player/pause"
	case models.PlaybackNext:
		method, path = http.MethodPost, "me/player/next"
	case models.PlaybackPrevious:
		method, path = http.MethodPost, "me/player/previous"
	default:
		return fmt.Errorf("%w: unknown playback action %q", shared.ErrMalformedRequest, action)
	}

	hdr, err := s.headers()
	if err != nil {
		return err
	}

	_, err = s.client.send(ctx, method, path, nil, hdr, nil)
	return err
}

// isSpotifyContextURI reports whether uri names a collection played as a context (album, playlist, artist, show).
func isSpotifyContextURI(uri string) bool {
	for _, kind := range []string{"album", "playlist", "artist", "show"} {
		if strings.HasPrefix(uri, "spotify:"+kind+":") {
			return true
		}
	}
	return false
}

// PlayTrack starts playback of a track URI, or of a whole album/playlist when given a context URI.
func (s *SpotifyService) PlayTrack(ctx context.Context, trackContext string) error {
	if strings.TrimSpace(trackContext) == "" {
		return fmt.Errorf("%w: empty track context", shared.ErrMalformedRequest)
	}

	hdr, err := s.headers()
	if err != nil {
		return err
	}

	body := spotifyPlayRequest{URIs: []string{trackContext}}
	if isSpotifyContextURI(trackContext) {
		body = spotifyPlayRequest{ContextURI: trackContext}
	}

	_, err = s.client.send(ctx, http.MethodPut, "me/player/play", nil, hdr, body)
	return err
}

// Profile retrieves the current user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*SpotifyUser, error) {
	hdr, err := s.headers()
	if err != nil {
		return nil, err
	}

	user, err := getJSON[SpotifyUser](ctx, s.client, "me", nil, hdr)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserID returns the Spotify user id of the token owner.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	user, err := s.Profile(ctx)
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile without id", shared.ErrNoData)
	}
	return user.ID, nil
}
