package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
)

// DispatcherOpts configures [NewDispatcher].
type DispatcherOpts struct {
	Cache  TrackCache // optional ISRC lookup cache
	Logger *log.Logger
}

// Dispatcher routes every [MusicProvider] call to the provider linked to the account.
//
// The provider is selected once at construction.
type Dispatcher struct {
	provider MusicProvider
	cache    TrackCache
	logger   *log.Logger
}

// NewDispatcher selects the provider whose kind is linked. It fails with [shared.ErrMissingCredential]
// when no account is linked or none of providers matches.
func NewDispatcher(linked models.ProviderKind, opts DispatcherOpts, providers ...MusicProvider) (*Dispatcher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DefaultLogger()
	}

	if linked == "" {
		return nil, fmt.Errorf("%w: no linked provider", shared.ErrMissingCredential)
	}

	for _, p := range providers {
		if p != nil && p.Kind() == linked {
			logger.Debug("dispatching to provider", "provider", p.Name())
			return &Dispatcher{provider: p, cache: opts.Cache, logger: logger}, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s provider configured", shared.ErrMissingCredential, linked)
}

// Provider returns the selected provider.
func (d *Dispatcher) Provider() MusicProvider { return d.provider }

func (d *Dispatcher) Name() string { return d.provider.Name() }
func (d *Dispatcher) Kind() models.ProviderKind { return d.provider.Kind() }

func (d *Dispatcher) Search(ctx context.Context, term string, limit int) (*models.SearchResult, error) {
	return d.provider.Search(ctx, term, limit)
}

func (d *Dispatcher) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return d.provider.GetPlaylists(ctx)
}

func (d *Dispatcher) GetUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	return d.provider.GetUserPlaylists(ctx, userID)
}

func (d *Dispatcher) GetAllTracksForPlaylist(ctx context.Context, playlistID string) ([]models.Track, error) {
	return d.provider.GetAllTracksForPlaylist(ctx, playlistID)
}

func (d *Dispatcher) AddTrackToPlaylist(ctx context.Context, playlistID, trackContext string) error {
	return d.provider.AddTrackToPlaylist(ctx, playlistID, trackContext)
}

func (d *Dispatcher) DeleteTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	return d.provider.DeleteTrackFromPlaylist(ctx, playlistID, trackID)
}

func (d *Dispatcher) GetTopArtists(ctx context.Context, opts TopOptions) ([]models.Artist, error) {
	return d.provider.GetTopArtists(ctx, opts)
}

func (d *Dispatcher) GetTopTracks(ctx context.Context, opts TopOptions) ([]models.Track, error) {
	return d.provider.GetTopTracks(ctx, opts)
}

func (d *Dispatcher) GetRecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	return d.provider.GetRecentlyPlayed(ctx, limit)
}

func (d *Dispatcher) GetCurrentTrack(ctx context.Context) (*models.Track, error) {
	return d.provider.GetCurrentTrack(ctx)
}

// FindTrackByISRC consults the cache before the provider and stores what the provider finds.
// Cache failures are logged and otherwise ignored.
func (d *Dispatcher) FindTrackByISRC(ctx context.Context, isrc, countryCode string) (*models.Track, error) {
	kind := d.provider.Kind()

	if d.cache != nil && strings.TrimSpace(isrc) != "" {
		cached, err := d.cache.Get(ctx, kind, countryCode, isrc)
		switch {
		case err != nil:
			d.logger.Warn("isrc cache lookup failed", "isrc", isrc, "error", err)
		case cached != nil:
			d.logger.Debug("isrc cache hit", "isrc", isrc, "country", countryCode)
			return cached, nil
		}
	}

	track, err := d.provider.FindTrackByISRC(ctx, isrc, countryCode)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Put(ctx, kind, countryCode, *track); err != nil {
			d.logger.Warn("isrc cache store failed", "isrc", isrc, "error", err)
		}
	}
	return track, nil
}

func (d *Dispatcher) Playback(ctx context.Context, action models.PlaybackAction) error {
	return d.provider.Playback(ctx, action)
}

func (d *Dispatcher) PlayTrack(ctx context.Context, trackContext string) error {
	return d.provider.PlayTrack(ctx, trackContext)
}

func (d *Dispatcher) CurrentUserID(ctx context.Context) (string, error) {
	return d.provider.CurrentUserID(ctx)
}

// AddTrackByISRC resolves isrc in the linked provider's catalog and appends the match to playlistID.
func (d *Dispatcher) AddTrackByISRC(ctx context.Context, playlistID, isrc string) (*models.Track, error) {
	track, err := d.FindTrackByISRC(ctx, isrc, "")
	if err != nil {
		return nil, err
	}
	if track.Context == "" {
		return nil, fmt.Errorf("%w: track %s has no playable context", shared.ErrNoData, isrc)
	}
	if err := d.provider.AddTrackToPlaylist(ctx, playlistID, track.Context); err != nil {
		return nil, err
	}
	return track, nil
}

// PlayFromInfo plays trackContext when given, otherwise the catalog match for isrc.
func (d *Dispatcher) PlayFromInfo(ctx context.Context, isrc, trackContext string) error {
	if strings.TrimSpace(trackContext) != "" {
		return d.provider.PlayTrack(ctx, trackContext)
	}
	if strings.TrimSpace(isrc) == "" {
		return fmt.Errorf("%w: neither isrc nor track context given", shared.ErrMalformedRequest)
	}

	track, err := d.FindTrackByISRC(ctx, isrc, "")
	if err != nil {
		return err
	}
	if track.Context == "" {
		return fmt.Errorf("%w: track %s has no playable context", shared.ErrNoData, isrc)
	}
	return d.provider.PlayTrack(ctx, track.Context)
}
