// package tasks implements playlist operations that span music providers.
//
// The core abstraction is SyncEngine, which orchestrates playlist transfers, comparisons, and library dumps.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
)

// searchLimit bounds the candidates considered by the search fallback.
const searchLimit = 5

// MatchMethod records how a source track was found on the destination provider.
type MatchMethod string

const (
	MatchNone   MatchMethod = ""
	MatchISRC   MatchMethod = "isrc"
	MatchSearch MatchMethod = "search"
)

// TrackMatchResult represents the result of attempting to match a single track.
type TrackMatchResult struct {
	Original models.Track  // Original track from source
	Matched  *models.Track // Matched track (nil if not found)
	Method   MatchMethod   // How the match was found
	Added    bool          // Whether the match was added to the destination playlist
	Error    error         // Error if match or add failed
}

// TransferRunResult contains all data from a full transfer operation.
type TransferRunResult struct {
	SourcePlaylist  *models.PlaylistExport // Source playlist with tracks
	DestPlaylistID  string                 // Destination playlist
	TrackMatches    []TrackMatchResult     // Individual track match results
	SuccessCount    int                    // Number of successfully matched tracks
	FailedCount     int                    // Number of failed matches
	AddedCount      int                    // Number of tracks added to the destination
	TotalTracks     int                    // Total tracks processed
	MatchPercentage float64                // Success rate as percentage
}

// ComparisonResult contains track comparison details between two playlists.
type ComparisonResult struct {
	SourcePlaylist *models.PlaylistExport // Source playlist
	DestPlaylist   *models.PlaylistExport // Destination playlist
	MatchedCount   int                    // Tracks found in both
	MissingInDest  []models.Track         // Tracks in source but not in dest
	ExtraInDest    []models.Track         // Tracks in dest but not in source
}

// TransferDiffResult contains the results of comparing two playlists.
type TransferDiffResult struct {
	Comparison ComparisonResult
}

// EndpointResult records a dump step that failed.
type EndpointResult struct {
	Endpoint string           `json:"endpoint"`
	Kind     shared.ErrorKind `json:"kind"`
	Message  string           `json:"error"`
	Error    error            `json:"-"`
}

// DumpResult contains everything the source provider exposes about the current user.
type DumpResult struct {
	Provider   string            `json:"provider"`
	UserID     string            `json:"user_id,omitempty"`
	Playlists  []models.Playlist `json:"playlists,omitempty"`
	TopArtists []models.Artist   `json:"top_artists,omitempty"`
	TopTracks  []models.Track    `json:"top_tracks,omitempty"`
	Recent     []models.Track    `json:"recently_played,omitempty"`
	Current    *models.Track     `json:"current_track,omitempty"`
	Errors     []EndpointResult  `json:"errors,omitempty"`
}

type dumpOperation struct {
	name    string
	phase   Phase
	message string
	run     func(ctx context.Context, svc services.MusicProvider, result *DumpResult) error
}

// SyncEngine defines operations for moving playlists between providers.
type SyncEngine interface {
	// Run copies the tracks of a source playlist into an existing destination playlist, matching by ISRC first.
	Run(ctx context.Context, srcIDOrName, destID string, progress chan<- ProgressUpdate) (*TransferRunResult, error)

	// Diff compares two playlists across providers by identifying matched tracks, missing tracks, and extra tracks.
	Diff(ctx context.Context, sourceSvc, destSvc services.MusicProvider, sourceID, destID string, progress chan<- ProgressUpdate) (*TransferDiffResult, error)

	// Dump fetches the profile, playlists, top items, history and current track of the source provider.
	Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error)
}

// PlaylistEngine implements SyncEngine for playlist operations.
//
// The destination is usually a [services.Dispatcher] so ISRC lookups go through its cache.
type PlaylistEngine struct {
	source services.MusicProvider
	dest   services.MusicProvider
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided providers.
// Either provider may be nil when the operation in use does not need it.
func NewPlaylistEngine(source, dest services.MusicProvider, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.DefaultLogger()
	}
	return &PlaylistEngine{
		source: source,
		dest:   dest,
		logger: shared.WithLogger(logger, "component", "tasks"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// exportPlaylist resolves idOrName against the library of svc and fetches every track.
//
// Ids missing from the library (e.g. Apple Music catalog playlists) are fetched directly.
func exportPlaylist(ctx context.Context, svc services.MusicProvider, idOrName string) (*models.PlaylistExport, error) {
	if strings.TrimSpace(idOrName) == "" {
		return nil, fmt.Errorf("%w: playlist id or name", shared.ErrMissingArgument)
	}

	playlists, err := svc.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlists: %w", err)
	}

	playlist := models.Playlist{ID: idOrName}
	for _, pl := range playlists {
		if pl.ID == idOrName || pl.Name == idOrName {
			playlist = pl
			break
		}
	}

	tracks, err := svc.GetAllTracksForPlaylist(ctx, playlist.ID)
	if err != nil {
		if shared.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s on %s", shared.ErrPlaylistNotFound, idOrName, svc.Name())
		}
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}

	return &models.PlaylistExport{Playlist: playlist, Tracks: tracks}, nil
}

// Run copies a source playlist into the destination playlist destID.
//
// Tracks with an ISRC are resolved with FindTrackByISRC; the rest, and ISRC misses, fall back to a catalog
// search matched on normalized title and artist. Tracks that cannot be matched are reported, not fatal.
func (e *PlaylistEngine) Run(ctx context.Context, srcIDOrName, destID string, progress chan<- ProgressUpdate) (*TransferRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source provider not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination provider not initialized", shared.ErrServiceUnavailable)
	}
	if strings.TrimSpace(destID) == "" {
		return nil, fmt.Errorf("%w: destination playlist id", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 1, e.source.Name()))

	srcPlaylist, err := exportPlaylist(ctx, e.source, srcIDOrName)
	if err != nil {
		return nil, err
	}

	total := len(srcPlaylist.Tracks)
	result := &TransferRunResult{
		SourcePlaylist: srcPlaylist,
		DestPlaylistID: destID,
		TotalTracks:    total,
	}

	e.sendProgress(progress, foundPlaylistUpdate(1, 1, srcPlaylist))
	e.sendProgress(progress, matchTrackUpdate(0, total, e.dest.Name(), nil))

	matches := make([]TrackMatchResult, total)
	for i, track := range srcPlaylist.Tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		e.sendProgress(progress, matchTrackUpdate(i+1, total, e.dest.Name(), &track))

		matches[i] = e.matchTrack(ctx, track)
		if matches[i].Matched != nil {
			result.SuccessCount++
		} else {
			e.logger.Debug("no match", "track", track.Name, "artist", track.Artist, "error", matches[i].Error)
		}
	}

	result.TrackMatches = matches
	result.FailedCount = total - result.SuccessCount
	if total > 0 {
		result.MatchPercentage = float64(result.SuccessCount) / float64(total) * 100
	}

	if result.SuccessCount == 0 {
		return result, fmt.Errorf("%w: no tracks were matched on %s", shared.ErrNoData, e.dest.Name())
	}

	for i := range matches {
		m := &matches[i]
		if m.Matched == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, addTracksUpdate(result.AddedCount+1, result.SuccessCount, destID))
		if err := e.dest.AddTrackToPlaylist(ctx, destID, m.Matched.Context); err != nil {
			e.logger.Warn("failed to add track", "track", m.Matched.Name, "error", err)
			m.Error = err
			continue
		}
		m.Added = true
		result.AddedCount++
	}

	e.logger.Info("transfer complete",
		"source", srcPlaylist.Playlist.Name, "matched", result.SuccessCount, "added", result.AddedCount, "total", total)
	return result, nil
}

// matchTrack finds track on the destination provider.
func (e *PlaylistEngine) matchTrack(ctx context.Context, track models.Track) TrackMatchResult {
	result := TrackMatchResult{Original: track}

	if track.ISRC != "" {
		found, err := e.dest.FindTrackByISRC(ctx, track.ISRC, "")
		switch {
		case err == nil && found.Context != "":
			result.Matched, result.Method = found, MatchISRC
			return result
		case err != nil && !errors.Is(err, shared.ErrNoData):
			result.Error = err
			return result
		}
	}

	res, err := e.dest.Search(ctx, strings.TrimSpace(track.Name+" "+track.Artist), searchLimit)
	if err != nil {
		result.Error = err
		return result
	}

	key := shared.NormalizeTrackKey(track.Name, track.Artist)
	for _, candidate := range res.Tracks {
		if candidate.Context != "" && shared.NormalizeTrackKey(candidate.Name, candidate.Artist) == key {
			result.Matched, result.Method = &candidate, MatchSearch
			return result
		}
	}

	result.Error = fmt.Errorf("%w: no match for %s - %s", shared.ErrNoData, track.Artist, track.Name)
	return result
}

// trackIndex looks tracks up by ISRC, falling back to the normalized title and artist.
type trackIndex struct {
	byISRC map[string]struct{}
	byKey  map[string]struct{}
}

func newTrackIndex(tracks []models.Track) trackIndex {
	idx := trackIndex{byISRC: map[string]struct{}{}, byKey: map[string]struct{}{}}
	for _, track := range tracks {
		idx.byKey[shared.NormalizeTrackKey(track.Name, track.Artist)] = struct{}{}
		if track.ISRC != "" {
			idx.byISRC[track.ISRC] = struct{}{}
		}
	}
	return idx
}

func (idx trackIndex) contains(track models.Track) bool {
	if track.ISRC != "" {
		if _, ok := idx.byISRC[track.ISRC]; ok {
			return true
		}
	}
	_, ok := idx.byKey[shared.NormalizeTrackKey(track.Name, track.Artist)]
	return ok
}

// Diff compares two playlists and identifies differences.
func (e *PlaylistEngine) Diff(ctx context.Context, sourceSvc, destSvc services.MusicProvider, sourceID, destID string, progress chan<- ProgressUpdate) (*TransferDiffResult, error) {
	if sourceSvc == nil || destSvc == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}

	result := &TransferDiffResult{}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, sourceSvc.Name()))
	sourceExport, err := exportPlaylist(ctx, sourceSvc, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to export source playlist: %w", err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, destSvc.Name()))
	destExport, err := exportPlaylist(ctx, destSvc, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to export destination playlist: %w", err)
	}

	result.Comparison.SourcePlaylist = sourceExport
	result.Comparison.DestPlaylist = destExport

	e.sendProgress(progress, compareUpdate(1, 2))
	destIndex := newTrackIndex(destExport.Tracks)
	for _, srcTrack := range sourceExport.Tracks {
		if destIndex.contains(srcTrack) {
			result.Comparison.MatchedCount++
		} else {
			result.Comparison.MissingInDest = append(result.Comparison.MissingInDest, srcTrack)
		}
	}

	e.sendProgress(progress, compareUpdate(2, 2))
	sourceIndex := newTrackIndex(sourceExport.Tracks)
	for _, destTrack := range destExport.Tracks {
		if !sourceIndex.contains(destTrack) {
			result.Comparison.ExtraInDest = append(result.Comparison.ExtraInDest, destTrack)
		}
	}

	return result, nil
}

var dumpOperations = []dumpOperation{
	{
		name: "current_user", phase: FetchProfile, message: "Fetching profile...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.UserID, err = svc.CurrentUserID(ctx)
			return err
		},
	},
	{
		name: "playlists", phase: FetchPlaylists, message: "Fetching playlists...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.Playlists, err = svc.GetPlaylists(ctx)
			return err
		},
	},
	{
		name: "top_artists", phase: FetchTopArtists, message: "Fetching top artists...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.TopArtists, err = svc.GetTopArtists(ctx, services.TopOptions{})
			return err
		},
	},
	{
		name: "top_tracks", phase: FetchTopTracks, message: "Fetching top tracks...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.TopTracks, err = svc.GetTopTracks(ctx, services.TopOptions{})
			return err
		},
	},
	{
		name: "recently_played", phase: FetchRecent, message: "Fetching recently played...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.Recent, err = svc.GetRecentlyPlayed(ctx, 0)
			return err
		},
	},
	{
		name: "current_track", phase: FetchCurrent, message: "Fetching current track...",
		run: func(ctx context.Context, svc services.MusicProvider, r *DumpResult) (err error) {
			r.Current, err = svc.GetCurrentTrack(ctx)
			return err
		},
	},
}

// Dump fetches everything the source provider exposes about the current user.
//
// Failed steps, including unsupported capabilities, are collected in [DumpResult.Errors].
// Only a missing credential aborts the dump.
func (e *PlaylistEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source provider not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Provider: e.source.Name(),
		Errors:   []EndpointResult{},
	}

	for i, op := range dumpOperations {
		e.sendProgress(progress, operationUpdate(op, i+1, len(dumpOperations)))

		err := op.run(ctx, e.source, result)
		if err == nil {
			continue
		}
		if errors.Is(err, shared.ErrMissingCredential) {
			return nil, err
		}
		result.Errors = append(result.Errors, EndpointResult{
			Endpoint: op.name,
			Kind:     shared.Classify(err),
			Message:  err.Error(),
			Error:    err,
		})
	}

	return result, nil
}

var _ SyncEngine = (*PlaylistEngine)(nil)
