package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/socially/internal/formatter"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the linked provider's catalog.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	term := strings.TrimSpace(strings.Join(cmd.StringArgs("term"), " "))
	if term == "" {
		return fmt.Errorf("%w: search term", shared.ErrMissingArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	r.logger.Debug("searching catalog", "provider", svc.Name(), "term", term)
	result, err := svc.Search(ctx, term, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return r.render(cmd, result, func(w io.Writer) {
		if result.Len() == 0 {
			fmt.Fprintf(w, "No results for %q\n", term)
			return
		}
		formatter.RenderSearchResult(w, result)
	})
}

// Playlists lists the current user's playlists, or another user's with --user.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.provider()
	if err != nil {
		return err
	}

	var playlists []models.Playlist
	if user := cmd.String("user"); user != "" {
		playlists, err = svc.GetUserPlaylists(ctx, user)
	} else {
		playlists, err = svc.GetPlaylists(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	return r.render(cmd, playlists, func(w io.Writer) { formatter.RenderPlaylists(w, playlists) })
}

// Tracks lists every track of a playlist.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	tracks, err := svc.GetAllTracksForPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch tracks: %w", err)
	}

	return r.render(cmd, tracks, func(w io.Writer) { formatter.RenderTracks(w, tracks) })
}

// Add adds a track to a playlist, either by its context or by resolving --isrc.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist")
	trackContext := cmd.StringArg("track")
	isrc := cmd.String("isrc")

	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if trackContext == "" && isrc == "" {
		return fmt.Errorf("%w: a track context or --isrc is required", shared.ErrMissingArgument)
	}
	if trackContext != "" && isrc != "" {
		return fmt.Errorf("%w: cannot specify both a track context and --isrc", shared.ErrInvalidArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	if isrc != "" {
		track, err := svc.AddTrackByISRC(ctx, playlistID, isrc)
		if err != nil {
			return fmt.Errorf("failed to add track: %w", err)
		}
		r.logger.Info("track added", "playlist", playlistID, "isrc", isrc, "context", track.Context)
		return r.writePlain("✓ Added %s - %s\n", track.Artist, track.Name)
	}

	if err := svc.AddTrackToPlaylist(ctx, playlistID, trackContext); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	r.logger.Info("track added", "playlist", playlistID, "context", trackContext)
	return r.writePlain("✓ Added %s\n", trackContext)
}

// Remove deletes a track from a playlist.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist")
	trackID := cmd.StringArg("track")
	if playlistID == "" || trackID == "" {
		return fmt.Errorf("%w: playlist id and track id", shared.ErrMissingArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	if err := svc.DeleteTrackFromPlaylist(ctx, playlistID, trackID); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}
	return r.writePlain("✓ Removed %s\n", trackID)
}
