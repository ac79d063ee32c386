// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
)

// MockProvider is an in-memory test double for [services.MusicProvider].
//
// Canned data is read from the exported fields. Errors maps an operation name
// (e.g. "Search", "FindTrackByISRC") to the error it should return.
type MockProvider struct {
	ProviderKind   models.ProviderKind
	Playlists      []models.Playlist
	PlaylistTracks map[string][]models.Track
	Catalog        map[string]models.Track
	SearchResults  map[string]*models.SearchResult
	TopArtists     []models.Artist
	TopTracks      []models.Track
	Recent         []models.Track
	Current        *models.Track
	UserID         string
	Errors         map[string]error

	mu      sync.Mutex
	calls   map[string]int
	added   map[string][]string
	removed map[string][]string
	actions []models.PlaybackAction
	played  []string
}

// NewMockProvider returns an empty MockProvider of the given kind.
func NewMockProvider(kind models.ProviderKind) *MockProvider {
	return &MockProvider{
		ProviderKind:   kind,
		PlaylistTracks: map[string][]models.Track{},
		Catalog:        map[string]models.Track{},
		SearchResults:  map[string]*models.SearchResult{},
		Errors:         map[string]error{},
	}
}

func (m *MockProvider) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
	return m.Errors[op]
}

// Calls returns how many times op was invoked.
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Added returns the track contexts added to playlistID, in order.
func (m *MockProvider) Added(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added[playlistID]...)
}

// Removed returns the track ids removed from playlistID, in order.
func (m *MockProvider) Removed(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed[playlistID]...)
}

// Actions returns the playback actions sent so far.
func (m *MockProvider) Actions() []models.PlaybackAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PlaybackAction(nil), m.actions...)
}

// Played returns the track contexts passed to PlayTrack.
func (m *MockProvider) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

func (m *MockProvider) Name() string { return "Mock " + string(m.ProviderKind) }

func (m *MockProvider) Kind() models.ProviderKind { return m.ProviderKind }

func (m *MockProvider) Search(ctx context.Context, term string, limit int) (*models.SearchResult, error) {
	if err := m.record("Search"); err != nil {
		return nil, err
	}
	if res, ok := m.SearchResults[term]; ok {
		return res, nil
	}
	return models.NewSearchResult(), nil
}

func (m *MockProvider) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := m.record("GetPlaylists"); err != nil {
		return nil, err
	}
	return m.Playlists, nil
}

func (m *MockProvider) GetUserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	if err := m.record("GetUserPlaylists"); err != nil {
		return nil, err
	}
	return m.Playlists, nil
}

func (m *MockProvider) GetAllTracksForPlaylist(ctx context.Context, playlistID string) ([]models.Track, error) {
	if err := m.record("GetAllTracksForPlaylist"); err != nil {
		return nil, err
	}
	tracks, ok := m.PlaylistTracks[playlistID]
	if !ok {
		return nil, &shared.StatusError{StatusCode: http.StatusNotFound, Body: "playlist not found"}
	}
	return tracks, nil
}

func (m *MockProvider) AddTrackToPlaylist(ctx context.Context, playlistID, trackContext string) error {
	if err := m.record("AddTrackToPlaylist"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.added == nil {
		m.added = map[string][]string{}
	}
	m.added[playlistID] = append(m.added[playlistID], trackContext)
	return nil
}

func (m *MockProvider) DeleteTrackFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	if err := m.record("DeleteTrackFromPlaylist"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removed == nil {
		m.removed = map[string][]string{}
	}
	m.removed[playlistID] = append(m.removed[playlistID], trackID)
	return nil
}

func (m *MockProvider) GetTopArtists(ctx context.Context, opts services.TopOptions) ([]models.Artist, error) {
	if err := m.record("GetTopArtists"); err != nil {
		return nil, err
	}
	return m.TopArtists, nil
}

func (m *MockProvider) GetTopTracks(ctx context.Context, opts services.TopOptions) ([]models.Track, error) {
	if err := m.record("GetTopTracks"); err != nil {
		return nil, err
	}
	return m.TopTracks, nil
}

func (m *MockProvider) GetRecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if err := m.record("GetRecentlyPlayed"); err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(m.Recent) {
		return m.Recent[:limit], nil
	}
	return m.Recent, nil
}

func (m *MockProvider) GetCurrentTrack(ctx context.Context) (*models.Track, error) {
	if err := m.record("GetCurrentTrack"); err != nil {
		return nil, err
	}
	if m.Current == nil {
		return nil, fmt.Errorf("%w: nothing playing", shared.ErrNoData)
	}
	return m.Current, nil
}

func (m *MockProvider) FindTrackByISRC(ctx context.Context, isrc, countryCode string) (*models.Track, error) {
	if err := m.record("FindTrackByISRC"); err != nil {
		return nil, err
	}
	track, ok := m.Catalog[isrc]
	if !ok {
		return nil, fmt.Errorf("%w: no track for isrc %s", shared.ErrNoData, isrc)
	}
	return &track, nil
}

func (m *MockProvider) Playback(ctx context.Context, action models.PlaybackAction) error {
	if err := m.record("Playback"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
	return nil
}

func (m *MockProvider) PlayTrack(ctx context.Context, trackContext string) error {
	if err := m.record("PlayTrack"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, trackContext)
	return nil
}

func (m *MockProvider) CurrentUserID(ctx context.Context) (string, error) {
	if err := m.record("CurrentUserID"); err != nil {
		return "", err
	}
	return m.UserID, nil
}

var _ services.MusicProvider = (*MockProvider)(nil)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
