package models

import (
	"errors"
	"time"
)

var (
	ErrEmptyProvider = errors.New("provider is required")
	ErrEmptyISRC     = errors.New("isrc is required")
	ErrEmptyContext  = errors.New("track context is required")
)

// CachedTrack is a [Track] resolved by ISRC on one provider and storefront.
//
// Lookups are keyed by (provider, country, isrc). Country is empty when the lookup used the provider default.
type CachedTrack struct {
	id        string
	sequence  int
	provider  ProviderKind
	country   string
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedTrack creates a CachedTrack for a resolved track.
// The ISRC is taken from the track itself.
func NewCachedTrack(sequence int, provider ProviderKind, country string, track Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		sequence:  sequence,
		provider:  provider,
		country:   country,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CachedTrack) ID() string { return c.id }
func (c *CachedTrack) Sequence() int { return c.sequence }
func (c *CachedTrack) Provider() ProviderKind { return c.provider }
func (c *CachedTrack) Country() string { return c.country }
func (c *CachedTrack) ISRC() string { return c.track.ISRC }
func (c *CachedTrack) Track() Track { return c.track }
func (c *CachedTrack) CreatedAt() time.Time { return c.createdAt }
func (c *CachedTrack) UpdatedAt() time.Time { return c.updatedAt }
func (c *CachedTrack) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedTrack) SetID(id string) { c.id = id }
func (c *CachedTrack) SetSequence(seq int) { c.sequence = seq }
func (c *CachedTrack) SetTrack(t Track) { c.track = t }
func (c *CachedTrack) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CachedTrack) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CachedTrack) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// Validate checks that the cache key and playback context are present.
func (c *CachedTrack) Validate() error {
	if c.provider == "" {
		return ErrEmptyProvider
	}
	if c.track.ISRC == "" {
		return ErrEmptyISRC
	}
	if c.track.Context == "" {
		return ErrEmptyContext
	}
	return nil
}
