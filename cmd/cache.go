package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

type cachedTrackView struct {
	ID       string              `json:"id"`
	Provider models.ProviderKind `json:"provider"`
	Country  string              `json:"country"`
	Track    models.Track        `json:"track"`
	Updated  string              `json:"updated_at"`
}

// CacheList lists the persisted ISRC lookups.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if r.repo == nil {
		return fmt.Errorf("%w: cache.backend is %q, listing needs \"sqlite\"", shared.ErrServiceUnavailable, r.config.Cache.Backend)
	}

	criteria := map[string]any{}
	if p := cmd.String("provider"); p != "" {
		kind, ok := models.ParseProviderKind(p)
		if !ok {
			return fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidFlag, p)
		}
		criteria["provider"] = string(kind)
	}
	if c := cmd.String("country"); c != "" {
		criteria["country"] = c
	}
	if i := cmd.String("isrc"); i != "" {
		criteria["isrc"] = i
	}

	cached, err := r.repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	views := make([]cachedTrackView, 0, len(cached))
	for _, c := range cached {
		views = append(views, cachedTrackView{
			ID:       c.ID(),
			Provider: c.Provider(),
			Country:  c.Country(),
			Track:    c.Track(),
			Updated:  c.UpdatedAt().Format("2006-01-02 15:04"),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.output)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Provider", "Country", "ISRC", "Track", "Context", "Updated"})
	for _, v := range views {
		t.AppendRow(table.Row{v.Provider, v.Country, v.Track.ISRC, v.Track.Artist + " - " + v.Track.Name, v.Track.Context, v.Updated})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(views), ""})
	t.Render()
	return nil
}

// CacheClear empties the ISRC cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if mem, ok := r.cache.(*services.MemoryTrackCache); ok {
		n := mem.Len()
		mem.Purge()
		return r.writePlain("✓ Cleared %d cached tracks\n", n)
	}

	if r.repo == nil {
		return r.writePlain("No cache configured\n")
	}

	n, err := r.repo.Purge()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info("cache cleared", "rows", n)
	return r.writePlain("✓ Cleared %d cached tracks\n", n)
}

// CacheRemove soft-deletes cached lookups by id.
func (r *Runner) CacheRemove(ctx context.Context, cmd *cli.Command) error {
	if r.repo == nil {
		return fmt.Errorf("%w: cache.backend is %q, removal needs \"sqlite\"", shared.ErrServiceUnavailable, r.config.Cache.Backend)
	}

	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: cached track id", shared.ErrMissingArgument)
	}

	var failed []string
	for _, id := range ids {
		if err := r.repo.Delete(id); err != nil {
			r.logger.Warn("failed to remove cached track", "id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		r.writePlain("✓ Removed %s\n", id)
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to remove %s", strings.Join(failed, ", "))
	}
	return nil
}
