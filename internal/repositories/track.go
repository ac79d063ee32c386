package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
)

const trackColumns = `id, sequence, provider, country, isrc, name, artist, album, context, image_url, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the ISRC lookup cache.
//
// Rows are unique per (provider, country, isrc) and soft deleted. Country and ISRC are stored upper case.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// normalizeCountry upper-cases storefront codes. ISRCs are stored and matched exactly as given.
func normalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	country, isrc := normalizeCountry(track.Country()), track.ISRC()
	t := track.Track()

	query := `
		INSERT INTO tracks (id, sequence, provider, country, isrc, name, artist, album, context, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(track.Provider()),
		country,
		isrc,
		t.Name,
		t.Artist,
		t.Album,
		t.Context,
		t.ImageURL,
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByKey retrieves the live entry for (provider, country, isrc)
func (r *TrackRepository) GetByKey(provider models.ProviderKind, country, isrc string) (*models.CachedTrack, error) {
	country = normalizeCountry(country)
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE provider = ? AND country = ? AND isrc = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, string(provider), country, isrc))
}

// Update refreshes the cached track data of an existing entry
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)
	t := track.Track()

	query := `
		UPDATE tracks
		SET name = ?, artist = ?, album = ?, context = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, t.Name, t.Artist, t.Album, t.Context, t.ImageURL, now, track.ID())
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}

	return nil
}

// Purge permanently removes every entry, including soft-deleted ones, and returns the number removed.
func (r *TrackRepository) Purge() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM tracks`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tracks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
//
// Supported criteria: "provider", "country" and "isrc" (strings).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if provider, ok := criteria["provider"].(string); ok && provider != "" {
		query += " AND provider = ?"
		args = append(args, provider)
	}

	if country, ok := criteria["country"].(string); ok {
		query += " AND country = ?"
		args = append(args, normalizeCountry(country))
	}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := []*models.CachedTrack{}
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single [sql.Row] into a [models.CachedTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	return track, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(s scanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		provider  string
		country   string
		isrc      string
		t         models.Track
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &provider, &country, &isrc, &t.Name, &t.Artist, &t.Album, &t.Context, &t.ImageURL, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	t.ISRC = isrc

	track := models.NewCachedTrack(sequence, models.ProviderKind(provider), country, t)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)
