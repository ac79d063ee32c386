package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/repositories"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	th "github.com/desertthunder/socially/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	opts.Output = output
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return NewRunner(opts), output
}

func runCommand(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:      "socially",
		Commands:  r.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"socially"}, args...))
}

func spotifyLibrary() *th.MockProvider {
	svc := th.NewMockProvider(models.ProviderSpotify)
	svc.Playlists = []models.Playlist{
		{ID: "pl1", Name: "Road Trip", AuthorName: "alice", Context: "spotify:playlist:pl1"},
		{ID: "pl2", Name: "Focus", AuthorName: "alice", Context: "spotify:playlist:pl2"},
	}
	svc.PlaylistTracks["pl1"] = []models.Track{
		{Name: "Harder Better", Artist: "Daft Punk", Album: "Discovery", ISRC: "GBDUW0000059", Context: "spotify:track:1"},
		{Name: "Midnight City", Artist: "M83", Album: "Hurry Up", ISRC: "FR6V81141061", Context: "spotify:track:2"},
	}
	svc.PlaylistTracks["pl2"] = []models.Track{
		{Name: "Intro", Artist: "The xx", ISRC: "GBBKS0900102", Context: "spotify:track:3"},
	}
	svc.Catalog["GBDUW0000059"] = svc.PlaylistTracks["pl1"][0]
	svc.SearchResults["daft punk"] = &models.SearchResult{
		Tracks:    []models.Track{svc.PlaylistTracks["pl1"][0]},
		Artists:   []models.Artist{{Name: "Daft Punk", ID: "artist1"}},
		Albums:    []models.Album{},
		Playlists: []models.Playlist{},
	}
	svc.TopArtists = []models.Artist{{Name: "Daft Punk", ID: "artist1"}, {Name: "M83", ID: "artist2"}}
	svc.TopTracks = svc.PlaylistTracks["pl1"]
	svc.Recent = svc.PlaylistTracks["pl1"]
	svc.UserID = "alice"
	return svc
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("creates runner with all dependencies", func(t *testing.T) {
			spotify := th.NewMockProvider(models.ProviderSpotify)
			apple := th.NewMockProvider(models.ProviderAppleMusic)
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Providers:  []services.MusicProvider{spotify, apple},
				Logger:     logger,
				Output:     output,
				HTTPClient: client,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if len(runner.providers) != 2 {
				t.Errorf("expected 2 providers, got %d", len(runner.providers))
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != client {
				t.Error("expected HTTP client to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be initialized")
			}
			if runner.dispatcher == nil || runner.dispatcher.Kind() != models.ProviderSpotify {
				t.Errorf("expected dispatcher for the linked spotify account, got %v", runner.dispatcher)
			}
		})

		t.Run("uses defaults for nil values", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be created")
			}
			if runner.configPath != defaultConfigPath {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger to be created")
			}
			if runner.output != os.Stdout {
				t.Error("expected default output to be os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default HTTP client")
			}
			if runner.registry == nil {
				t.Error("expected default registry")
			}
		})

		t.Run("without providers every command is unavailable", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

			_, err := runner.provider()
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Fatalf("expected ErrServiceUnavailable, got %v", err)
			}
			if !strings.Contains(err.Error(), "missing credential") {
				t.Errorf("expected dispatcher error in message, got %v", err)
			}
		})

		t.Run("linked provider must be configured", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Account.Provider = string(models.ProviderAppleMusic)

			runner, _ := newTestRunner(t, RunnerOpts{
				Config:    config,
				Providers: []services.MusicProvider{th.NewMockProvider(models.ProviderSpotify)},
			})

			if runner.dispatcher != nil {
				t.Error("expected no dispatcher")
			}
			if !errors.Is(runner.dispatchErr, shared.ErrMissingCredential) {
				t.Errorf("expected ErrMissingCredential, got %v", runner.dispatchErr)
			}
		})
	})

	t.Run("resolveService", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{
			Providers: []services.MusicProvider{th.NewMockProvider(models.ProviderSpotify)},
		})

		tc := []struct {
			name    string
			input   string
			want    models.ProviderKind
			wantErr error
		}{
			{"empty is linked", "", models.ProviderSpotify, nil},
			{"by name", "spotify", models.ProviderSpotify, nil},
			{"not configured", "apple_music", "", shared.ErrServiceUnavailable},
			{"alias not configured", "apple", "", shared.ErrServiceUnavailable},
			{"unknown", "tidal", "", shared.ErrInvalidArgument},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				svc, err := runner.resolveService(tt.input)
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected %v, got %v", tt.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if svc.Kind() != tt.want {
					t.Errorf("expected %s, got %s", tt.want, svc.Kind())
				}
			})
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("writes pretty JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := "{\n  \"key\": \"value\"\n}\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &th.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := th.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("note")
			if output.String() != "\nnote\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Fatal("expected at least one command to be registered")
		}

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			if seen[cmd.Name] {
				t.Errorf("duplicate command %s", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"search", "playlists", "tracks", "add", "remove", "top", "recent", "now", "isrc", "player", "export", "transfer", "dump", "cache", "setup", "open", "serve"} {
			if !seen[name] {
				t.Errorf("expected %s command", name)
			}
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("search renders every collection", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "search", "daft", "punk"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), "Harder Better") || !strings.Contains(output.String(), "artist1") {
			t.Errorf("expected tracks and artists tables, got:\n%s", output.String())
		}
	})

	t.Run("search json", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "search", "--json", "daft", "punk"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var result models.SearchResult
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(result.Tracks) != 1 || result.Tracks[0].ISRC != "GBDUW0000059" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("search without results", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "search", "nothing"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), `No results for "nothing"`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("playlists", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "playlists"); err != nil {
			t.Fatalf("playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") || !strings.Contains(output.String(), "Focus") {
			t.Errorf("expected playlists in output, got:\n%s", output.String())
		}

		if err := runCommand(runner, "playlists", "--user", "bob"); err != nil {
			t.Fatalf("playlists --user failed: %v", err)
		}
		if svc.Calls("GetUserPlaylists") != 1 {
			t.Errorf("expected GetUserPlaylists to be called once, got %d", svc.Calls("GetUserPlaylists"))
		}
	})

	t.Run("tracks", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "tracks", "--json", "pl1"); err != nil {
			t.Fatalf("tracks failed: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON output, got %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("tracks of unknown playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		err := runCommand(runner, "tracks", "missing")
		if !errors.Is(err, shared.ErrInvalidStatus) {
			t.Errorf("expected ErrInvalidStatus, got %v", err)
		}
	})

	t.Run("add by context", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "add", "pl2", "spotify:track:9"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if got := svc.Added("pl2"); len(got) != 1 || got[0] != "spotify:track:9" {
			t.Errorf("unexpected additions %v", got)
		}
	})

	t.Run("add by isrc", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "add", "--isrc", "GBDUW0000059", "pl2"); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if got := svc.Added("pl2"); len(got) != 1 || got[0] != "spotify:track:1" {
			t.Errorf("unexpected additions %v", got)
		}
		if !strings.Contains(output.String(), "Daft Punk - Harder Better") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("add errors", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		tc := []struct {
			name string
			args []string
			want error
		}{
			{"no playlist", []string{"add"}, shared.ErrMissingArgument},
			{"no track", []string{"add", "pl1"}, shared.ErrMissingArgument},
			{"both", []string{"add", "--isrc", "X", "pl1", "spotify:track:1"}, shared.ErrInvalidArgument},
			{"isrc miss", []string{"add", "--isrc", "USXXX0000000", "pl1"}, shared.ErrNoData},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if err := runCommand(runner, tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("remove", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "remove", "pl1", "2"); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if got := svc.Removed("pl1"); len(got) != 1 || got[0] != "2" {
			t.Errorf("unexpected removals %v", got)
		}

		if err := runCommand(runner, "rm", "pl1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unavailable provider", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		for _, args := range [][]string{{"search", "x"}, {"playlists"}, {"tracks", "pl1"}, {"recent"}, {"now"}} {
			if err := runCommand(runner, args...); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("%s: expected ErrServiceUnavailable, got %v", args[0], err)
			}
		}
	})
}

func TestListeningCommands(t *testing.T) {
	t.Run("top artists", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "top", "artists", "--range", "short_term"); err != nil {
			t.Fatalf("top artists failed: %v", err)
		}
		if !strings.Contains(output.String(), "M83") {
			t.Errorf("expected artists table, got:\n%s", output.String())
		}
	})

	t.Run("top tracks json", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "top", "tracks", "--json", "--limit", "5"); err != nil {
			t.Fatalf("top tracks failed: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("expected 2 tracks, got %d", len(tracks))
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "top", "artists", "--range", "forever"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if svc.Calls("GetTopArtists") != 0 {
			t.Error("provider should not be called with an invalid range")
		}
	})

	t.Run("unsupported capability", func(t *testing.T) {
		svc := spotifyLibrary()
		svc.Errors["GetTopTracks"] = shared.ErrUnsupported
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "top", "tracks"); !errors.Is(err, shared.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("recent honours limit", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "recent", "--json", "--limit", "1"); err != nil {
			t.Fatalf("recent failed: %v", err)
		}

		var tracks []models.Track
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if len(tracks) != 1 {
			t.Errorf("expected 1 track, got %d", len(tracks))
		}
	})

	t.Run("now", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "now"); err != nil {
			t.Fatalf("now failed: %v", err)
		}
		if output.String() != "Nothing is playing\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		svc.Current = &models.Track{Name: "Intro", Artist: "The xx"}
		if err := runCommand(runner, "now"); err != nil {
			t.Fatalf("now failed: %v", err)
		}
		if !strings.Contains(output.String(), "Intro") {
			t.Errorf("expected current track, got:\n%s", output.String())
		}
	})

	t.Run("isrc", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotifyLibrary()}})

		if err := runCommand(runner, "isrc", "--json", "--country", "US", "GBDUW0000059"); err != nil {
			t.Fatalf("isrc failed: %v", err)
		}

		var track models.Track
		if err := json.Unmarshal(output.Bytes(), &track); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if track.Context != "spotify:track:1" {
			t.Errorf("unexpected track %+v", track)
		}

		if err := runCommand(runner, "isrc"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("isrc lookups are cached", func(t *testing.T) {
		svc := spotifyLibrary()
		cache, err := services.NewMemoryTrackCache(8, nil)
		if err != nil {
			t.Fatalf("failed to create cache: %v", err)
		}
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}, Cache: cache})

		for range 3 {
			if err := runCommand(runner, "isrc", "GBDUW0000059"); err != nil {
				t.Fatalf("isrc failed: %v", err)
			}
		}
		if svc.Calls("FindTrackByISRC") != 1 {
			t.Errorf("expected 1 provider lookup, got %d", svc.Calls("FindTrackByISRC"))
		}
		if cache.Len() != 1 {
			t.Errorf("expected 1 cached track, got %d", cache.Len())
		}
	})

	t.Run("player actions", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		for _, action := range []string{"play", "pause", "next", "previous"} {
			if err := runCommand(runner, "player", action); err != nil {
				t.Fatalf("player %s failed: %v", action, err)
			}
		}

		got := svc.Actions()
		want := []models.PlaybackAction{models.PlaybackPlay, models.PlaybackPause, models.PlaybackNext, models.PlaybackPrevious}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("action %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("player track", func(t *testing.T) {
		svc := spotifyLibrary()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{svc}})

		if err := runCommand(runner, "player", "track", "spotify:track:2"); err != nil {
			t.Fatalf("player track failed: %v", err)
		}
		if err := runCommand(runner, "player", "track", "--isrc", "GBDUW0000059"); err != nil {
			t.Fatalf("player track --isrc failed: %v", err)
		}

		played := svc.Played()
		if len(played) != 2 || played[0] != "spotify:track:2" || played[1] != "spotify:track:1" {
			t.Errorf("unexpected played contexts %v", played)
		}

		if err := runCommand(runner, "player", "track"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestTransferCommands(t *testing.T) {
	newProviders := func() (*th.MockProvider, *th.MockProvider) {
		spotify := spotifyLibrary()
		apple := th.NewMockProvider(models.ProviderAppleMusic)
		apple.Catalog["GBDUW0000059"] = models.Track{Name: "Harder Better", Artist: "Daft Punk", ISRC: "GBDUW0000059", Context: "1440818839"}
		apple.Catalog["FR6V81141061"] = models.Track{Name: "Midnight City", Artist: "M83", ISRC: "FR6V81141061", Context: "1440818840"}
		apple.Playlists = []models.Playlist{{ID: "p.dest", Name: "Road Trip"}}
		apple.PlaylistTracks["p.dest"] = []models.Track{apple.Catalog["GBDUW0000059"]}
		return spotify, apple
	}

	t.Run("run", func(t *testing.T) {
		spotify, apple := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify, apple}})

		err := runCommand(runner, "transfer", "run", "--to", "apple_music", "--source", "Road Trip", "--dest", "p.dest")
		if err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		added := apple.Added("p.dest")
		if len(added) != 2 || added[0] != "1440818839" || added[1] != "1440818840" {
			t.Errorf("unexpected additions %v", added)
		}
		if !strings.Contains(output.String(), "Success rate: 2/2 (100.0%)") {
			t.Errorf("expected summary, got:\n%s", output.String())
		}
	})

	t.Run("run reports unmatched tracks", func(t *testing.T) {
		spotify, apple := newProviders()
		delete(apple.Catalog, "FR6V81141061")
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify, apple}})

		if err := runCommand(runner, "transfer", "run", "--to", "apple", "--source", "pl1", "--dest", "p.dest"); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		if !strings.Contains(output.String(), "  - M83 - Midnight City (") {
			t.Errorf("expected unmatched track, got:\n%s", output.String())
		}
	})

	t.Run("run requires destination provider", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})

		err := runCommand(runner, "transfer", "run", "--to", "apple_music", "--source", "pl1", "--dest", "p.dest")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("diff", func(t *testing.T) {
		spotify, apple := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify, apple}})

		err := runCommand(runner, "transfer", "diff", "--to", "apple_music", "--source-id", "pl1", "--dest-id", "p.dest")
		if err != nil {
			t.Fatalf("diff failed: %v", err)
		}
		if !strings.Contains(output.String(), "Matched: 1 tracks") {
			t.Errorf("expected 1 match, got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "Missing from destination: 1 tracks") || !strings.Contains(output.String(), "Midnight City") {
			t.Errorf("expected missing track, got:\n%s", output.String())
		}
	})

	t.Run("dump", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})

		if err := runCommand(runner, "dump"); err != nil {
			t.Fatalf("dump failed: %v", err)
		}

		var dump map[string]any
		if err := json.Unmarshal(output.Bytes(), &dump); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if dump["user_id"] != "alice" {
			t.Errorf("unexpected dump %v", dump)
		}
	})

	t.Run("dump to file", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})
		path := filepath.Join(t.TempDir(), "dump.json")

		if err := runCommand(runner, "dump", "--save", path); err != nil {
			t.Fatalf("dump failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, path), `"playlists"`) {
			t.Error("expected playlists in saved dump")
		}
		if !strings.Contains(output.String(), "Dump saved to") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("export", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})
		dir := t.TempDir()

		if err := runCommand(runner, "export", "--format", "csv", "--output", dir, "--rate", "100"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		th.AssertFileExists(t, filepath.Join(dir, "pl1_tracks.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "pl2_tracks.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Playlists: 2 (2 succeeded, 0 failed)") {
			t.Errorf("expected summary, got:\n%s", output.String())
		}
	})

	t.Run("export selected playlists as json", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, output := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})
		dir := t.TempDir()

		if err := runCommand(runner, "export", "--json", "--output", dir, "--rate", "100", "pl2"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		var result models.BulkExportResult
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if result.TotalPlaylists != 1 || result.SuccessfulExports != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		th.AssertFileExists(t, filepath.Join(dir, "pl2.json"))
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		spotify, _ := newProviders()
		runner, _ := newTestRunner(t, RunnerOpts{Providers: []services.MusicProvider{spotify}})

		if err := runCommand(runner, "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func setupCacheRepo(t *testing.T) *repositories.TrackRepository {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewTrackRepository(db)
}

func TestCacheCommands(t *testing.T) {
	seed := func(t *testing.T, repo *repositories.TrackRepository) {
		t.Helper()
		adapter := repositories.NewTrackCacheAdapter(repo)
		ctx := context.Background()
		for _, put := range []struct {
			provider models.ProviderKind
			track    models.Track
		}{
			{models.ProviderSpotify, models.Track{Name: "Harder Better", Artist: "Daft Punk", ISRC: "GBDUW0000059", Context: "spotify:track:1"}},
			{models.ProviderAppleMusic, models.Track{Name: "Harder Better", Artist: "Daft Punk", ISRC: "GBDUW0000059", Context: "1440818839"}},
		} {
			if err := adapter.Put(ctx, put.provider, "us", put.track); err != nil {
				t.Fatalf("failed to seed cache: %v", err)
			}
		}
	}

	t.Run("list", func(t *testing.T) {
		repo := setupCacheRepo(t)
		seed(t, repo)
		runner, output := newTestRunner(t, RunnerOpts{Repository: repo})

		if err := runCommand(runner, "cache", "list"); err != nil {
			t.Fatalf("cache list failed: %v", err)
		}
		if !strings.Contains(output.String(), "spotify:track:1") || !strings.Contains(output.String(), "1440818839") {
			t.Errorf("expected both entries, got:\n%s", output.String())
		}
	})

	t.Run("list filters", func(t *testing.T) {
		repo := setupCacheRepo(t)
		seed(t, repo)
		runner, output := newTestRunner(t, RunnerOpts{Repository: repo})

		if err := runCommand(runner, "cache", "list", "--json", "--provider", "apple"); err != nil {
			t.Fatalf("cache list failed: %v", err)
		}

		var views []cachedTrackView
		if err := json.Unmarshal(output.Bytes(), &views); err != nil {
			t.Fatalf("expected JSON, got %v", err)
		}
		if len(views) != 1 || views[0].Provider != models.ProviderAppleMusic || views[0].Country != "US" {
			t.Errorf("unexpected entries %+v", views)
		}

		if err := runCommand(runner, "cache", "list", "--provider", "tidal"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		repo := setupCacheRepo(t)
		seed(t, repo)
		runner, _ := newTestRunner(t, RunnerOpts{Repository: repo})

		entries, _ := repo.List(map[string]any{"provider": string(models.ProviderSpotify)})
		if len(entries) != 1 {
			t.Fatalf("expected 1 seeded spotify entry, got %d", len(entries))
		}

		if err := runCommand(runner, "cache", "remove", entries[0].ID()); err != nil {
			t.Fatalf("cache remove failed: %v", err)
		}
		if remaining, _ := repo.List(map[string]any{}); len(remaining) != 1 {
			t.Errorf("expected 1 remaining entry, got %d", len(remaining))
		}

		if err := runCommand(runner, "cache", "remove", "missing"); err == nil {
			t.Error("expected error for unknown id")
		}
	})

	t.Run("clear sqlite", func(t *testing.T) {
		repo := setupCacheRepo(t)
		seed(t, repo)
		runner, output := newTestRunner(t, RunnerOpts{Repository: repo})

		if err := runCommand(runner, "cache", "clear"); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "Cleared 2 cached tracks") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("clear memory", func(t *testing.T) {
		cache, err := services.NewMemoryTrackCache(4, nil)
		if err != nil {
			t.Fatalf("failed to create cache: %v", err)
		}
		cache.Put(context.Background(), models.ProviderSpotify, "", models.Track{ISRC: "GBDUW0000059", Context: "spotify:track:1"})
		runner, output := newTestRunner(t, RunnerOpts{Cache: cache})

		if err := runCommand(runner, "cache", "clear"); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
		if cache.Len() != 0 {
			t.Errorf("expected empty cache, got %d", cache.Len())
		}
		if !strings.Contains(output.String(), "Cleared 1 cached tracks") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("list needs sqlite backend", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := runCommand(runner, "cache", "list"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config links provider", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, _ := newTestRunner(t, RunnerOpts{})

		err := runCommand(runner, "setup", "config", "--config", path, "--provider", "apple", "--apple-user-token", "user-token", "--storefront", "gb")
		if err != nil {
			t.Fatalf("setup config failed: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if config.Account.Provider != string(models.ProviderAppleMusic) {
			t.Errorf("expected apple_music, got %s", config.Account.Provider)
		}
		if config.Credentials.AppleMusic.UserToken != "user-token" || config.Credentials.AppleMusic.Storefront != "gb" {
			t.Errorf("unexpected apple credentials %+v", config.Credentials.AppleMusic)
		}
	})

	t.Run("config keeps existing values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		existing := shared.DefaultConfig()
		existing.Credentials.Spotify.AccessToken = "kept"
		if err := shared.SaveConfig(path, existing); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner, _ := newTestRunner(t, RunnerOpts{})
		if err := runCommand(runner, "setup", "config", "--config", path, "--storefront", "jp"); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load written config: %v", err)
		}
		if config.Credentials.Spotify.AccessToken != "kept" {
			t.Error("expected existing token to be kept")
		}
	})

	t.Run("config rejects unknown provider", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := runCommand(runner, "setup", "config", "--config", path, "--provider", "tidal"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("config should not be written")
		}
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "socially.db")
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := runCommand(runner, "setup", "database", "--config", configPath, "--database", dbPath); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}

		th.AssertFileExists(t, configPath)
		th.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "0 pending") {
			t.Errorf("expected migrations to be applied, got %q", output.String())
		}

		output.Reset()
		if err := runCommand(runner, "setup", "database", "--config", configPath, "--database", dbPath, "--rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(output.String(), "schema version 0, 1 pending") {
			t.Errorf("expected one pending migration after rollback, got %q", output.String())
		}
	})
}

func TestWebURL(t *testing.T) {
	tc := []struct {
		name       string
		ref        string
		linked     models.ProviderKind
		storefront string
		want       string
		wantErr    error
	}{
		{"spotify uri", "spotify:playlist:abc", models.ProviderAppleMusic, "", "https://open.spotify.com/playlist/abc", nil},
		{"spotify bare id", "abc", models.ProviderSpotify, "", "https://open.spotify.com/track/abc", nil},
		{"apple song", "1440818839", models.ProviderAppleMusic, "gb", "https://music.apple.com/gb/song/1440818839", nil},
		{"apple playlist default storefront", "pl.u-123", models.ProviderAppleMusic, "", "https://music.apple.com/us/playlist/pl.u-123", nil},
		{"url passthrough", "https://example.com/x", models.ProviderSpotify, "", "https://example.com/x", nil},
		{"empty", " ", models.ProviderSpotify, "", "", shared.ErrMissingArgument},
		{"malformed spotify uri", "spotify:track", models.ProviderSpotify, "", "", shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := webURL(tt.ref, tt.linked, tt.storefront)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOpenPrint(t *testing.T) {
	runner, output := newTestRunner(t, RunnerOpts{})

	if err := runCommand(runner, "open", "--print", "spotify:track:1"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if output.String() != "https://open.spotify.com/track/1\n" {
		t.Errorf("unexpected output %q", output.String())
	}
}

func TestBuildDependencies(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("memory cache", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Cache.Backend = "memory"

		deps, err := buildDependencies(config, nil, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer deps.Close()

		if len(deps.providers) != 2 {
			t.Errorf("expected 2 providers, got %d", len(deps.providers))
		}
		if _, ok := deps.cache.(*services.MemoryTrackCache); !ok {
			t.Errorf("expected memory cache, got %T", deps.cache)
		}
		if deps.repo != nil {
			t.Error("expected no repository")
		}
	})

	t.Run("sqlite cache", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Cache.Backend = "sqlite"
		config.Database.Path = ":memory:"

		deps, err := buildDependencies(config, nil, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer deps.Close()

		if _, ok := deps.cache.(*repositories.TrackCacheAdapter); !ok {
			t.Errorf("expected sqlite cache, got %T", deps.cache)
		}
		if deps.repo == nil {
			t.Error("expected repository")
		}
	})

	t.Run("no cache", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Cache.Backend = "none"

		deps, err := buildDependencies(config, nil, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer deps.Close()

		if deps.cache != nil {
			t.Errorf("expected no cache, got %T", deps.cache)
		}
	})

	t.Run("providers without credentials fail as missing credential", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.AccessToken = ""

		deps, err := buildDependencies(config, nil, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		runner, _ := newTestRunner(t, RunnerOpts{Config: config, Providers: deps.providers})
		if err := runCommand(runner, "playlists"); !errors.Is(err, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
	})
}
