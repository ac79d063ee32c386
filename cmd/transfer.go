package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/socially/internal/formatter"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/desertthunder/socially/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun copies a playlist from one provider into an existing playlist on another, matching by ISRC.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	sourceIDOrName := cmd.String("source")
	destID := cmd.String("dest")

	sourceSvc, err := r.resolveService(cmd.String("from"))
	if err != nil {
		return err
	}
	destSvc, err := r.resolveService(cmd.String("to"))
	if err != nil {
		return err
	}

	r.logger.Info("starting transfer", "source", sourceIDOrName, "dest", destID, "from", sourceSvc.Name(), "to", destSvc.Name())
	r.writePlain("Starting playlist transfer...\n")
	r.writePlain("Source: %s (%s)\n", sourceIDOrName, sourceSvc.Name())
	r.writePlain("Destination: %s (%s)\n\n", destID, destSvc.Name())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.MatchTracks:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.AddTracks:
				if update.Step == 1 {
					r.writePlain("\n📝 %s\n", update.Message)
				}
			}
		}
	}()

	engine := tasks.NewPlaylistEngine(sourceSvc, destSvc, r.logger)
	result, err := engine.Run(ctx, sourceIDOrName, destID, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete!")
	r.writePlain("Source: %s (%d tracks)\n", result.SourcePlaylist.Playlist.Name, result.TotalTracks)
	r.writePlain("Destination: %s (%d tracks added)\n", result.DestPlaylistID, result.AddedCount)
	r.writePlain("Success rate: %d/%d (%.1f%%)\n", result.SuccessCount, result.TotalTracks, result.MatchPercentage)

	if result.FailedCount > 0 || result.AddedCount < result.SuccessCount {
		r.writePlain("\nTracks not transferred:\n")
		for _, match := range result.TrackMatches {
			if match.Added {
				continue
			}
			reason := "no match"
			if match.Error != nil {
				reason = match.Error.Error()
			}
			r.writePlain("  - %s - %s (%s)\n", match.Original.Artist, match.Original.Name, reason)
		}
	}

	return nil
}

// TransferDiff compares and shows missing tracks between two playlists.
func (r *Runner) TransferDiff(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source-id")
	destID := cmd.String("dest-id")

	r.logger.Info("transfer diff requested", "source", sourceID, "dest", destID)

	sourceSvc, err := r.resolveService(cmd.String("from"))
	if err != nil {
		return err
	}
	destSvc, err := r.resolveService(cmd.String("to"))
	if err != nil {
		return err
	}

	r.writePlain("Comparing playlists...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Diff(ctx, sourceSvc, destSvc, sourceID, destID, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", result.Comparison.SourcePlaylist.Playlist.Name, len(result.Comparison.SourcePlaylist.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", result.Comparison.DestPlaylist.Playlist.Name, len(result.Comparison.DestPlaylist.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", result.Comparison.MatchedCount)
	r.writePlain("Missing from destination: %d tracks\n", len(result.Comparison.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(result.Comparison.ExtraInDest))

	if len(result.Comparison.MissingInDest) > 0 {
		r.writePlain("Missing from destination:\n")
		formatter.RenderTracks(r.output, result.Comparison.MissingInDest)
		r.writePlain("\n")
	}

	if len(result.Comparison.ExtraInDest) > 0 {
		r.writePlain("Extra in destination (not in source):\n")
		formatter.RenderTracks(r.output, result.Comparison.ExtraInDest)
	}

	return nil
}

// Dump writes everything a provider exposes about the current user as JSON.
func (r *Runner) Dump(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.resolveService(cmd.String("provider"))
	if err != nil {
		return err
	}

	r.logger.Info("dumping provider state", "provider", svc.Name())

	result, err := tasks.NewPlaylistEngine(svc, nil, r.logger).Dump(ctx, nil)
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}

	for _, e := range result.Errors {
		r.logger.Warn("dump step failed", "endpoint", e.Endpoint, "kind", e.Kind)
	}

	path := cmd.String("save")
	if path == "" {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return r.writePlain("✓ Dump saved to %s (%d errors)\n", path, len(result.Errors))
}

// Export writes playlists to disk with the bulk exporter. No ids exports the whole library.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !tasks.ValidFormat(format) {
		return fmt.Errorf("%w: unsupported format %q (json, csv, markdown or txt)", shared.ErrInvalidFlag, format)
	}

	svc, err := r.provider()
	if err != nil {
		return err
	}

	ids := cmd.StringArgs("playlists")
	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float64("rate"),
		Client:     r.httpClient,
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.reportExport(r.output, progressCh)
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, svc, ids, opts)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Playlists: %d (%d succeeded, %d failed)\n", result.TotalPlaylists, result.SuccessfulExports, result.FailedExports)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

func (r *Runner) reportExport(w io.Writer, progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		if update.Phase == tasks.ExportPlaylist {
			fmt.Fprintf(w, "[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}
}
