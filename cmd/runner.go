package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/repositories"
	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/desertthunder/socially/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	providers   map[models.ProviderKind]services.MusicProvider
	dispatcher  *services.Dispatcher
	dispatchErr error
	cache       services.TrackCache
	repo        *repositories.TrackRepository
	registry    *prometheus.Registry
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	engine      *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Providers  []services.MusicProvider
	Cache      services.TrackCache
	Repository *repositories.TrackRepository
	Registry   *prometheus.Registry
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// The dispatcher is built from the linked account in Config. When that fails every provider command
// returns the construction error.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	providers := make(map[models.ProviderKind]services.MusicProvider, len(opts.Providers))
	for _, p := range opts.Providers {
		if p != nil {
			providers[p.Kind()] = p
		}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		providers:  providers,
		cache:      opts.Cache,
		repo:       opts.Repository,
		registry:   opts.Registry,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	linked, _ := models.ParseProviderKind(opts.Config.Account.Provider)
	r.dispatcher, r.dispatchErr = r.dispatch(linked)
	if r.dispatchErr != nil {
		r.logger.Debug("no linked provider", "error", r.dispatchErr)
	}

	var source services.MusicProvider
	if r.dispatcher != nil {
		source = r.dispatcher
	}
	r.engine = tasks.NewPlaylistEngine(source, nil, r.logger)

	return r
}

// dispatch builds a [services.Dispatcher] for kind sharing the runner's ISRC cache.
func (r *Runner) dispatch(kind models.ProviderKind) (*services.Dispatcher, error) {
	providers := make([]services.MusicProvider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	return services.NewDispatcher(kind, services.DispatcherOpts{Cache: r.cache, Logger: r.logger}, providers...)
}

// provider returns the dispatcher for the linked account.
func (r *Runner) provider() (*services.Dispatcher, error) {
	if r.dispatcher == nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, r.dispatchErr)
	}
	return r.dispatcher, nil
}

// resolveService maps a provider name onto a configured dispatcher. An empty name is the linked provider.
func (r *Runner) resolveService(name string) (*services.Dispatcher, error) {
	if name == "" {
		return r.provider()
	}

	kind, ok := models.ParseProviderKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid provider '%s' (must be 'spotify' or 'apple_music')", shared.ErrInvalidArgument, name)
	}
	if _, ok := r.providers[kind]; !ok {
		return nil, fmt.Errorf("%w: %s provider not initialized", shared.ErrServiceUnavailable, kind)
	}
	return r.dispatch(kind)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, playlistsCommand, tracksCommand, addCommand, removeCommand,
		topCommand, recentCommand, nowCommand, isrcCommand, playerCommand,
		exportCommand, transferCommand, dumpCommand, cacheCommand, openCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// render writes data as JSON when --json is set, otherwise through fn.
func (r *Runner) render(cmd *cli.Command, data any, fn func(io.Writer)) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	fn(r.output)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// dependencies are the long lived values main builds from the configuration.
type dependencies struct {
	providers []services.MusicProvider
	cache     services.TrackCache
	repo      *repositories.TrackRepository
	db        *sql.DB
}

// Close releases the database, if one was opened.
func (d *dependencies) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// buildDependencies constructs both providers over one rate limited transport plus the configured ISRC cache.
//
// Providers without credentials are still built; their calls fail with [shared.ErrMissingCredential].
func buildDependencies(config *shared.Config, metrics *services.Metrics, logger *log.Logger) (*dependencies, error) {
	transport := services.NewHTTPTransport(services.TransportOpts{
		Timeout:           config.Transport.Timeout,
		RequestsPerSecond: config.Transport.RequestsPerSecond,
		Burst:             config.Transport.Burst,
		UserAgent:         config.Transport.UserAgent,
		Metrics:           metrics,
		Logger:            logger,
	})

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		BaseURL:   config.Credentials.Spotify.BaseURL,
		Token:     services.StaticToken(config.Credentials.Spotify.AccessToken),
		Transport: transport,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	apple, err := services.NewAppleMusicService(services.AppleMusicOpts{
		BaseURL:        config.Credentials.AppleMusic.BaseURL,
		DeveloperToken: services.StaticToken(config.Credentials.AppleMusic.DeveloperToken),
		UserToken:      config.Credentials.AppleMusic.UserToken,
		Storefront:     config.Credentials.AppleMusic.Storefront,
		Transport:      transport,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Apple Music service: %w", err)
	}

	deps := &dependencies{providers: []services.MusicProvider{spotify, apple}}

	switch config.Cache.Backend {
	case "sqlite":
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return nil, err
		}
		deps.db = db
		deps.repo = repositories.NewTrackRepository(db)
		deps.cache = repositories.NewTrackCacheAdapter(deps.repo)
	case "memory", "":
		cache, err := services.NewMemoryTrackCache(config.Cache.Size, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create track cache: %w", err)
		}
		deps.cache = cache
	}

	return deps, nil
}
