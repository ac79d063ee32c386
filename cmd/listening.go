package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/desertthunder/socially/internal/formatter"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/urfave/cli/v3"
)

func topOptions(cmd *cli.Command) (services.TopOptions, error) {
	opts := services.TopOptions{
		TimeRange: models.TimeRange(cmd.String("range")),
		Limit:     cmd.Int("limit"),
		Offset:    cmd.Int("offset"),
	}
	if !opts.TimeRange.Valid() {
		return opts, fmt.Errorf("%w: --range must be short_term, medium_term or long_term", shared.ErrInvalidFlag)
	}
	return opts, nil
}

// TopArtists lists the user's most played artists.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	opts, err := topOptions(cmd)
	if err != nil {
		return err
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	artists, err := svc.GetTopArtists(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to fetch top artists: %w", err)
	}

	return r.render(cmd, artists, func(w io.Writer) { formatter.RenderArtists(w, artists) })
}

// TopTracks lists the user's most played tracks.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	opts, err := topOptions(cmd)
	if err != nil {
		return err
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	tracks, err := svc.GetTopTracks(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to fetch top tracks: %w", err)
	}

	return r.render(cmd, tracks, func(w io.Writer) { formatter.RenderTracks(w, tracks) })
}

// Recent lists recently played tracks.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.provider()
	if err != nil {
		return err
	}

	tracks, err := svc.GetRecentlyPlayed(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch recently played: %w", err)
	}

	return r.render(cmd, tracks, func(w io.Writer) { formatter.RenderTracks(w, tracks) })
}

// Now shows the track that is playing.
func (r *Runner) Now(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.provider()
	if err != nil {
		return err
	}

	track, err := svc.GetCurrentTrack(ctx)
	if errors.Is(err, shared.ErrNoData) {
		return r.writePlain("Nothing is playing\n")
	}
	if err != nil {
		return fmt.Errorf("failed to fetch current track: %w", err)
	}

	return r.render(cmd, track, func(w io.Writer) { formatter.RenderTracks(w, []models.Track{*track}) })
}

// ISRC resolves a recording code to a catalog track.
func (r *Runner) ISRC(ctx context.Context, cmd *cli.Command) error {
	isrc := cmd.StringArg("isrc")
	if isrc == "" {
		return fmt.Errorf("%w: isrc", shared.ErrMissingArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	track, err := svc.FindTrackByISRC(ctx, isrc, cmd.String("country"))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", isrc, err)
	}

	return r.render(cmd, track, func(w io.Writer) { formatter.RenderTracks(w, []models.Track{*track}) })
}

// Player sends a remote-control action to the active device.
func (r *Runner) Player(action models.PlaybackAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		svc, err := r.provider()
		if err != nil {
			return err
		}

		if err := svc.Playback(ctx, action); err != nil {
			return fmt.Errorf("failed to %s: %w", action, err)
		}
		return r.writePlain("✓ %s\n", action)
	}
}

// PlayTrack starts a track by its context, or resolves --isrc first.
func (r *Runner) PlayTrack(ctx context.Context, cmd *cli.Command) error {
	trackContext := cmd.StringArg("track")
	isrc := cmd.String("isrc")
	if trackContext == "" && isrc == "" {
		return fmt.Errorf("%w: a track context or --isrc is required", shared.ErrMissingArgument)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	if err := svc.PlayFromInfo(ctx, isrc, trackContext); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return r.writePlain("✓ Playing\n")
}
