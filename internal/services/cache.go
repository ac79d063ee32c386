package services

import (
	"context"
	"strings"

	"github.com/desertthunder/socially/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 512

// TrackCache stores catalog tracks resolved by ISRC.
//
// Get returns (nil, nil) on a miss. Implementations key entries by (provider, country, isrc).
// Country is compared case-insensitively; isrc must match exactly.
type TrackCache interface {
	Get(ctx context.Context, provider models.ProviderKind, country, isrc string) (*models.Track, error)
	Put(ctx context.Context, provider models.ProviderKind, country string, track models.Track) error
}

// CacheKey builds the lookup key shared by the cache implementations.
func CacheKey(provider models.ProviderKind, country, isrc string) string {
	return string(provider) + "|" + strings.ToUpper(strings.TrimSpace(country)) + "|" + isrc
}

// MemoryTrackCache is a size-bounded in-process [TrackCache] with least-recently-used eviction.
type MemoryTrackCache struct {
	entries *lru.Cache[string, models.Track]
	metrics *Metrics
}

// NewMemoryTrackCache creates a cache holding at most size tracks. A size <= 0 uses 512.
func NewMemoryTrackCache(size int, metrics *Metrics) (*MemoryTrackCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, models.Track](size)
	if err != nil {
		return nil, err
	}
	return &MemoryTrackCache{entries: entries, metrics: metrics}, nil
}

func (c *MemoryTrackCache) Get(_ context.Context, provider models.ProviderKind, country, isrc string) (*models.Track, error) {
	track, ok := c.entries.Get(CacheKey(provider, country, isrc))
	c.metrics.observeCache(ok)
	if !ok {
		return nil, nil
	}
	return &track, nil
}

// Put stores track under its own ISRC. Tracks without an ISRC are ignored.
func (c *MemoryTrackCache) Put(_ context.Context, provider models.ProviderKind, country string, track models.Track) error {
	if track.ISRC == "" {
		return nil
	}
	c.entries.Add(CacheKey(provider, country, track.ISRC), track)
	return nil
}

// Len returns the number of cached tracks.
func (c *MemoryTrackCache) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *MemoryTrackCache) Purge() {
	c.entries.Purge()
}
