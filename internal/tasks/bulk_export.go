package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/socially/internal/formatter"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	"golang.org/x/time/rate"
)

// Export formats accepted by [BulkExportOpts.Format].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

var filenameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string       // Export format: json, csv, markdown, txt
	OutputDir  string       // Base output directory (default: socially_export_{epoch})
	NumWorkers int          // Concurrent workers (default: 5, max: 10)
	RateLimit  float64      // Playlist fetches per second (default: 5)
	Client     *http.Client // Client used to download markdown cover images
}

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Export     *models.PlaylistExport
}

// ValidFormat reports whether format is a known export format.
func ValidFormat(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Playlists are fetched sequentially by a rate limited producer and written by a pool of workers.
// An empty ids exports every playlist in the library. Failures are recorded per playlist,
// and a manifest summarizing the run is written to the output directory.
func (e *PlaylistEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	srv services.MusicProvider,
	ids []string,
	opts BulkExportOpts,
) (*models.BulkExportResult, error) {
	if srv == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if !ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("socially_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	library, err := srv.GetPlaylists(ctx)
	if err != nil && len(ids) == 0 {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	if err != nil {
		e.logger.Warn("exporting without playlist metadata", "error", err)
	}

	known := make(map[string]models.Playlist, len(library))
	for _, pl := range library {
		known[pl.ID] = pl
	}
	if len(ids) == 0 {
		for _, pl := range library {
			ids = append(ids, pl.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]models.PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan models.PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	// the producer also sends failed fetches to results, so it joins the workers in wg
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		e.sendProgress(prog, fetchSourceUpdate(1, len(ids), srv.Name()))
		for i, playlistID := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			playlist, ok := known[playlistID]
			if !ok {
				playlist = models.Playlist{ID: playlistID, Name: playlistID}
			}

			tracks, err := srv.GetAllTracksForPlaylist(ctx, playlistID)
			if err != nil {
				results <- models.PlaylistExportResult{
					PlaylistID:   playlistID,
					PlaylistName: playlist.Name,
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			jobs <- PlaylistExportJob{
				PlaylistID: playlistID,
				Export:     &models.PlaylistExport{Playlist: playlist, Tracks: tracks},
			}

			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), playlist.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(*result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- models.PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist writes a single playlist in the configured format.
func exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) models.PlaylistExportResult {
	result := models.PlaylistExportResult{
		PlaylistID:   j.PlaylistID,
		PlaylistName: j.Export.Playlist.Name,
		Files:        []string{},
	}
	base := filepath.Join(opts.OutputDir, filenameReplacer.Replace(j.PlaylistID))

	switch opts.Format {
	case FormatCSV:
		csvRes, err := formatter.WriteCSVExport(j.Export, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case FormatMarkdown:
		mdRes, err := formatter.WriteMarkdownExport(j.Export, base, opts.Client)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case FormatText:
		path, err := formatter.WriteTextExport(j.Export, base+"_tracks.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteJSONExport(j.Export, base+".json")
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
