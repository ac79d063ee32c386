package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
)

// TrackCacheAdapter implements services.TrackCache using TrackRepository.
//
// Entries are deduplicated by the (provider, country, isrc) unique constraint. The ISRC is matched exactly.
// Duplicate inserts are silently ignored (UNIQUE constraint violations).
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// Get returns the cached track, or nil on a miss.
func (a *TrackCacheAdapter) Get(_ context.Context, provider models.ProviderKind, country, isrc string) (*models.Track, error) {
	cached, err := a.repo.GetByKey(provider, country, isrc)
	if errors.Is(err, ErrTrackNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	track := cached.Track()
	return &track, nil
}

// Put caches a resolved track under its own ISRC.
// Returns nil if the entry already exists (deduplication) or the track has no ISRC.
func (a *TrackCacheAdapter) Put(_ context.Context, provider models.ProviderKind, country string, track models.Track) error {
	if track.ISRC == "" {
		return nil
	}

	if existing, err := a.repo.GetByKey(provider, country, track.ISRC); err == nil && existing != nil {
		return nil
	}

	if err := a.repo.Create(models.NewCachedTrack(0, provider, country, track)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

var _ services.TrackCache = (*TrackCacheAdapter)(nil)
