package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
)

// MusicProvider is the capability set shared by every streaming provider.
//
// Capabilities a provider does not offer fail with [shared.ErrUnsupported].
// FindTrackByISRC is implemented by every provider.
type MusicProvider interface {
	// Name returns the display name of the provider (e.g., "Spotify", "Apple Music")
	Name() string
	Kind() models.ProviderKind

	// Search queries the catalog for tracks, albums, artists and playlists matching term.
	Search(ctx context.Context, term string, limit int) (*models.SearchResult, error)

	// GetPlaylists returns every playlist in the current user's library.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetUserPlaylists returns the public playlists of another user.
	GetUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error)

	// GetAllTracksForPlaylist returns every track of a playlist, following pagination.
	GetAllTracksForPlaylist(ctx context.Context, playlistID string) ([]models.Track, error)

	AddTrackToPlaylist(ctx context.Context, playlistID, trackContext string) error
	DeleteTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error

	GetTopArtists(ctx context.Context, opts TopOptions) ([]models.Artist, error)
	GetTopTracks(ctx context.Context, opts TopOptions) ([]models.Track, error)

	// GetRecentlyPlayed returns the most recently played tracks, newest first.
	GetRecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error)

	// GetCurrentTrack returns the track the user is listening to.
	GetCurrentTrack(ctx context.Context) (*models.Track, error)

	// FindTrackByISRC resolves an ISRC in the provider catalog. countryCode may be empty.
	FindTrackByISRC(ctx context.Context, isrc, countryCode string) (*models.Track, error)

	Playback(ctx context.Context, action models.PlaybackAction) error
	PlayTrack(ctx context.Context, trackContext string) error

	CurrentUserID(ctx context.Context) (string, error)
}

// TopOptions selects the window and page of a top artists/tracks request.
// Zero values take the provider defaults.
type TopOptions struct {
	TimeRange models.TimeRange
	Limit     int
	Offset    int
}

func (o TopOptions) validate() error {
	if !o.TimeRange.Valid() {
		return fmt.Errorf("%w: unknown time range %q", shared.ErrMalformedRequest, o.TimeRange)
	}
	if o.Limit < 0 || o.Offset < 0 {
		return fmt.Errorf("%w: negative limit or offset", shared.ErrMalformedRequest)
	}
	return nil
}

func unsupported(provider, capability string) error {
	return fmt.Errorf("%w: %s does not support %s", shared.ErrUnsupported, provider, capability)
}

// clamp bounds n to upper, using def when n is zero or negative.
func clamp(n, def, upper int) int {
	if n <= 0 {
		n = def
	}
	if n > upper {
		n = upper
	}
	return n
}

var (
	_ MusicProvider = (*SpotifyService)(nil)
	_ MusicProvider = (*AppleMusicService)(nil)
	_ MusicProvider = (*Dispatcher)(nil)
)
