package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	th "github.com/desertthunder/socially/internal/testing"
)

var (
	srcWithISRC = models.Track{Name: "Karma Police", Artist: "Radiohead", ISRC: "GBAYE9700207", Context: "spotify:track:1"}
	srcNoISRC   = models.Track{Name: "Local Song", Artist: "Some Band", Context: "spotify:track:2"}
	srcUnknown  = models.Track{Name: "Obscure", Artist: "Nobody", ISRC: "XX0000000000", Context: "spotify:track:3"}
)

func newSource() *th.MockProvider {
	src := th.NewMockProvider(models.ProviderSpotify)
	src.Playlists = []models.Playlist{{ID: "pl1", Name: "Road Trip"}}
	src.PlaylistTracks["pl1"] = []models.Track{srcWithISRC, srcNoISRC, srcUnknown}
	return src
}

func newDest() *th.MockProvider {
	dest := th.NewMockProvider(models.ProviderAppleMusic)
	dest.Catalog["GBAYE9700207"] = models.Track{Name: "Karma Police", Artist: "Radiohead", ISRC: "GBAYE9700207", Context: "1097862062"}
	dest.SearchResults["Local Song Some Band"] = &models.SearchResult{Tracks: []models.Track{
		{Name: "Local Song (Live)", Artist: "Some Band", Context: "111"},
		{Name: "local  song", Artist: "SOME BAND", Context: "222"},
	}}
	return dest
}

func TestPlaylistEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("matches by ISRC then search", func(t *testing.T) {
		tc := []struct {
			name     string
			sourceID string
		}{
			{"by id", "pl1"},
			{"by name", "Road Trip"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				dest := newDest()
				engine := NewPlaylistEngine(newSource(), dest, nil)

				result, err := engine.Run(ctx, tt.sourceID, "dest1", nil)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				if result.TotalTracks != 3 || result.SuccessCount != 2 || result.FailedCount != 1 || result.AddedCount != 2 {
					t.Errorf("unexpected counts: %+v", result)
				}
				if result.SourcePlaylist.Playlist.Name != "Road Trip" {
					t.Errorf("expected source playlist metadata, got %+v", result.SourcePlaylist.Playlist)
				}

				methods := []MatchMethod{MatchISRC, MatchSearch, MatchNone}
				for i, m := range result.TrackMatches {
					if m.Method != methods[i] {
						t.Errorf("track %d: expected method %q, got %q", i, methods[i], m.Method)
					}
				}
				if !errors.Is(result.TrackMatches[2].Error, shared.ErrNoData) {
					t.Errorf("expected ErrNoData for unmatched track, got %v", result.TrackMatches[2].Error)
				}

				added := dest.Added("dest1")
				if len(added) != 2 || added[0] != "1097862062" || added[1] != "222" {
					t.Errorf("unexpected added contexts %v", added)
				}
			})
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 100)
		engine := NewPlaylistEngine(newSource(), newDest(), nil)

		if _, err := engine.Run(ctx, "pl1", "dest1", progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		phases := map[Phase]int{}
		for u := range progress {
			phases[u.Phase]++
		}
		if phases[FetchSource] != 2 || phases[MatchTracks] != 4 || phases[AddTracks] != 2 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		engine := NewPlaylistEngine(newSource(), th.NewMockProvider(models.ProviderAppleMusic), nil)

		result, err := engine.Run(ctx, "pl1", "dest1", nil)
		if !errors.Is(err, shared.ErrNoData) {
			t.Fatalf("expected ErrNoData, got %v", err)
		}
		if result == nil || result.FailedCount != 3 {
			t.Errorf("expected partial result with 3 failures, got %+v", result)
		}
	})

	t.Run("add failures are recorded", func(t *testing.T) {
		dest := newDest()
		dest.Errors["AddTrackToPlaylist"] = &shared.StatusError{StatusCode: 403}
		engine := NewPlaylistEngine(newSource(), dest, nil)

		result, err := engine.Run(ctx, "pl1", "dest1", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.SuccessCount != 2 || result.AddedCount != 0 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if shared.StatusCode(result.TrackMatches[0].Error) != 403 || result.TrackMatches[0].Added {
			t.Errorf("expected add error on match, got %+v", result.TrackMatches[0])
		}
	})

	t.Run("lookup errors other than no data skip the search", func(t *testing.T) {
		dest := newDest()
		dest.Errors["FindTrackByISRC"] = fmt.Errorf("%w: no developer token", shared.ErrMissingCredential)
		engine := NewPlaylistEngine(newSource(), dest, nil)

		result, _ := engine.Run(ctx, "pl1", "dest1", nil)
		if !errors.Is(result.TrackMatches[0].Error, shared.ErrMissingCredential) {
			t.Errorf("expected credential error, got %v", result.TrackMatches[0].Error)
		}
		if dest.Calls("Search") != 1 {
			t.Errorf("expected only the ISRC-less track to be searched, got %d searches", dest.Calls("Search"))
		}
	})

	t.Run("dispatcher cache is reused across runs", func(t *testing.T) {
		dest := newDest()
		cache, err := services.NewMemoryTrackCache(16, nil)
		if err != nil {
			t.Fatalf("failed to create cache: %v", err)
		}
		dispatcher, err := services.NewDispatcher(models.ProviderAppleMusic, services.DispatcherOpts{Cache: cache}, dest)
		if err != nil {
			t.Fatalf("failed to create dispatcher: %v", err)
		}
		engine := NewPlaylistEngine(newSource(), dispatcher, nil)

		for range 2 {
			if _, err := engine.Run(ctx, "pl1", "dest1", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		// the unknown ISRC misses the cache both times
		if got := dest.Calls("FindTrackByISRC"); got != 3 {
			t.Errorf("expected 3 provider lookups, got %d", got)
		}
		if len(dest.Added("dest1")) != 4 {
			t.Errorf("expected tracks added on both runs, got %v", dest.Added("dest1"))
		}
	})

	t.Run("errors", func(t *testing.T) {
		missingPlaylist := newSource()
		listFailure := newSource()
		listFailure.Errors["GetPlaylists"] = fmt.Errorf("%w: timeout", shared.ErrTransport)

		tc := []struct {
			name     string
			source   services.MusicProvider
			dest     services.MusicProvider
			sourceID string
			destID   string
			want     error
		}{
			{"nil source", nil, newDest(), "pl1", "dest1", shared.ErrServiceUnavailable},
			{"nil destination", newSource(), nil, "pl1", "dest1", shared.ErrServiceUnavailable},
			{"missing destination id", newSource(), newDest(), "pl1", " ", shared.ErrMissingArgument},
			{"missing source id", newSource(), newDest(), "", "dest1", shared.ErrMissingArgument},
			{"unknown playlist", missingPlaylist, newDest(), "nope", "dest1", shared.ErrPlaylistNotFound},
			{"playlist listing fails", listFailure, newDest(), "pl1", "dest1", shared.ErrTransport},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewPlaylistEngine(tt.source, tt.dest, nil).Run(ctx, tt.sourceID, tt.destID, nil)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewPlaylistEngine(newSource(), newDest(), nil).Run(cctx, "pl1", "dest1", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPlaylistEngine_Diff(t *testing.T) {
	ctx := context.Background()

	t.Run("compares by ISRC and normalized key", func(t *testing.T) {
		src := newSource()
		dest := th.NewMockProvider(models.ProviderAppleMusic)
		dest.PlaylistTracks["p.abc"] = []models.Track{
			{Name: "Karma Police", Artist: "Radiohead", ISRC: "GBAYE9700207"},
			{Name: "LOCAL SONG", Artist: "some band"},
			{Name: "Extra", Artist: "Someone"},
		}

		result, err := NewPlaylistEngine(nil, nil, nil).Diff(ctx, src, dest, "pl1", "p.abc", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		c := result.Comparison
		if c.MatchedCount != 2 {
			t.Errorf("expected 2 matched, got %d", c.MatchedCount)
		}
		if len(c.MissingInDest) != 1 || c.MissingInDest[0].Name != "Obscure" {
			t.Errorf("unexpected missing tracks %+v", c.MissingInDest)
		}
		if len(c.ExtraInDest) != 1 || c.ExtraInDest[0].Name != "Extra" {
			t.Errorf("unexpected extra tracks %+v", c.ExtraInDest)
		}
	})

	t.Run("errors", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, nil, nil)

		if _, err := engine.Diff(ctx, nil, newDest(), "a", "b", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := engine.Diff(ctx, newSource(), newDest(), "pl1", "missing", nil); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestPlaylistEngine_Dump(t *testing.T) {
	ctx := context.Background()

	t.Run("collects every endpoint", func(t *testing.T) {
		src := newSource()
		src.UserID = "wizzler"
		src.TopArtists = []models.Artist{{Name: "Radiohead"}}
		src.TopTracks = []models.Track{srcWithISRC}
		src.Recent = []models.Track{srcNoISRC}
		src.Current = &srcWithISRC

		progress := make(chan ProgressUpdate, 10)
		result, err := NewPlaylistEngine(src, nil, nil).Dump(ctx, progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		if result.Provider != "Mock spotify" || result.UserID != "wizzler" || len(result.Playlists) != 1 || result.Current == nil {
			t.Errorf("unexpected dump %+v", result)
		}
		if len(result.Errors) != 0 {
			t.Errorf("expected no errors, got %+v", result.Errors)
		}
		if n := len(progress); n != len(dumpOperations) {
			t.Errorf("expected %d progress updates, got %d", len(dumpOperations), n)
		}
	})

	t.Run("unsupported capabilities are recorded", func(t *testing.T) {
		src := th.NewMockProvider(models.ProviderAppleMusic)
		src.Errors["GetTopTracks"] = fmt.Errorf("%w: Apple Music does not support top tracks", shared.ErrUnsupported)
		src.Errors["CurrentUserID"] = fmt.Errorf("%w: Apple Music does not support current user id", shared.ErrUnsupported)

		result, err := NewPlaylistEngine(src, nil, nil).Dump(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Errors) != 3 {
			t.Fatalf("expected 3 failed endpoints, got %+v", result.Errors)
		}
		want := map[string]shared.ErrorKind{
			"current_user":  shared.KindUnsupported,
			"top_tracks":    shared.KindUnsupported,
			"current_track": shared.KindNoData,
		}
		for _, e := range result.Errors {
			if want[e.Endpoint] != e.Kind {
				t.Errorf("%s: expected %s, got %s", e.Endpoint, want[e.Endpoint], e.Kind)
			}
			if e.Message == "" {
				t.Errorf("%s: expected error message", e.Endpoint)
			}
		}
	})

	t.Run("missing credential aborts", func(t *testing.T) {
		src := th.NewMockProvider(models.ProviderSpotify)
		src.Errors["GetPlaylists"] = fmt.Errorf("%w: no access token", shared.ErrMissingCredential)

		if _, err := NewPlaylistEngine(src, nil, nil).Dump(ctx, nil); !errors.Is(err, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
	})

	t.Run("nil source", func(t *testing.T) {
		if _, err := NewPlaylistEngine(nil, nil, nil).Dump(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSendProgress(t *testing.T) {
	engine := NewPlaylistEngine(nil, nil, nil)

	t.Run("nil channel", func(t *testing.T) {
		engine.sendProgress(nil, compareUpdate(1, 1))
	})

	t.Run("full channel does not block", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		engine.sendProgress(progress, compareUpdate(1, 2))
		engine.sendProgress(progress, compareUpdate(2, 2))

		if u := <-progress; u.Step != 1 {
			t.Errorf("expected first update to be kept, got step %d", u.Step)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := []struct {
		phase Phase
		want  string
	}{
		{FetchSource, "fetch_source"},
		{MatchTracks, "match_tracks"},
		{AddTracks, "add_tracks"},
		{FetchTopArtists, "fetch_top_artists"},
		{ExportPlaylist, "export_playlist"},
		{Phase(99), ""},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.phase.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
