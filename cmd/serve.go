package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/server"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve exposes the request metrics and a health check until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	name := "none"
	if svc, err := r.provider(); err == nil {
		name = svc.Name()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving metrics on http://%s/metrics (Ctrl+C to stop)\n", cfg.Addr())
	return server.New(cfg, r.registry, name, r.logger).Start(ctx)
}

// webURL converts a provider context into a URL the browser can open.
//
// Spotify URIs ("spotify:track:id") map to open.spotify.com. Bare ids belong to the linked provider:
// Spotify track ids, or Apple Music catalog songs ("pl." ids are playlists) in storefront.
func webURL(ref string, linked models.ProviderKind, storefront string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", fmt.Errorf("%w: context", shared.ErrMissingArgument)
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return ref, nil
	case strings.HasPrefix(ref, "spotify:"):
		parts := strings.Split(ref, ":")
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return "", fmt.Errorf("%w: malformed Spotify URI %q", shared.ErrInvalidArgument, ref)
		}
		return "https://open.spotify.com/" + parts[1] + "/" + url.PathEscape(parts[2]), nil
	case linked == models.ProviderSpotify:
		return "https://open.spotify.com/track/" + url.PathEscape(ref), nil
	}

	if storefront == "" {
		storefront = "us"
	}
	kind := "song"
	if strings.HasPrefix(ref, "pl.") {
		kind = "playlist"
	}
	return fmt.Sprintf("https://music.apple.com/%s/%s/%s", storefront, kind, url.PathEscape(ref)), nil
}

// Open opens a track or playlist context in the browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	linked, _ := models.ParseProviderKind(r.config.Account.Provider)
	link, err := webURL(cmd.StringArg("context"), linked, r.config.Credentials.AppleMusic.Storefront)
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", link)
	}

	if err := shared.OpenBrowser(link); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		return r.writePlain("Please open this URL in your browser:\n%s\n", link)
	}
	return r.writePlain("→ Opened %s\n", link)
}
