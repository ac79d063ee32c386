package models

import (
	"time"
)

// Model defines the base interface for all persistent models in socially.
// Implementations include CachedTrack.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// ProviderKind identifies one of the supported streaming providers.
type ProviderKind string

const (
	ProviderSpotify    ProviderKind = "spotify"
	ProviderAppleMusic ProviderKind = "apple_music"
)

// ParseProviderKind maps a user supplied provider name onto a [ProviderKind].
// The second return value is false for unknown names.
func ParseProviderKind(s string) (ProviderKind, bool) {
	switch s {
	case "spotify":
		return ProviderSpotify, true
	case "apple_music", "apple", "applemusic":
		return ProviderAppleMusic, true
	}
	return "", false
}

// PlaybackAction is a remote-control command sent to the active player.
type PlaybackAction string

const (
	PlaybackPlay     PlaybackAction = "play"
	PlaybackPause    PlaybackAction = "pause"
	PlaybackNext     PlaybackAction = "next"
	PlaybackPrevious PlaybackAction = "previous"
)

// Valid reports whether a is one of the four known actions.
func (a PlaybackAction) Valid() bool {
	switch a {
	case PlaybackPlay, PlaybackPause, PlaybackNext, PlaybackPrevious:
		return true
	}
	return false
}

// TimeRange is the affinity window used by top artists/tracks.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // ~4 weeks
	MediumTerm TimeRange = "medium_term" // ~6 months
	LongTerm   TimeRange = "long_term"   // ~1 year
)

// Valid reports whether r is empty or one of the known ranges.
func (r TimeRange) Valid() bool {
	switch r {
	case "", ShortTerm, MediumTerm, LongTerm:
		return true
	}
	return false
}
