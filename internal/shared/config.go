package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/socially/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables consulted by [Config.ApplyEnv].
const (
	EnvProvider            = "SOCIALLY_PROVIDER"
	EnvSpotifyToken        = "SOCIALLY_SPOTIFY_TOKEN"
	EnvAppleDeveloperToken = "SOCIALLY_APPLE_DEVELOPER_TOKEN"
	EnvAppleUserToken      = "SOCIALLY_APPLE_USER_TOKEN"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Account     AccountConfig     `toml:"account"`
	Credentials CredentialsConfig `toml:"credentials"`
	Transport   TransportConfig   `toml:"transport"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// AccountConfig names the provider the current user has linked.
type AccountConfig struct {
	Provider string `toml:"provider"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	AppleMusic AppleMusicConfig `toml:"apple_music"`
}

// SpotifyConfig contains Spotify API credentials.
//
// AccessToken is a bearer token obtained out of band; socially never refreshes it.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	BaseURL      string `toml:"base_url"`
}

// AppleMusicConfig contains Apple Music API credentials.
type AppleMusicConfig struct {
	DeveloperToken string `toml:"developer_token"`
	UserToken      string `toml:"user_token"`
	Storefront     string `toml:"storefront"`
	BaseURL        string `toml:"base_url"`
}

// TransportConfig tunes the shared HTTP transport.
type TransportConfig struct {
	Timeout           time.Duration `toml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	UserAgent         string        `toml:"user_agent"`
}

// CacheConfig selects the ISRC lookup cache.
type CacheConfig struct {
	Backend string `toml:"backend"`
	Size    int    `toml:"size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains metrics server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides provider selection and tokens with non-empty values from getenv.
//
// Pass [os.Getenv] in production; tests supply a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvProvider)); v != "" {
		c.Account.Provider = v
	}
	if v := strings.TrimSpace(getenv(EnvSpotifyToken)); v != "" {
		c.Credentials.Spotify.AccessToken = v
	}
	if v := strings.TrimSpace(getenv(EnvAppleDeveloperToken)); v != "" {
		c.Credentials.AppleMusic.DeveloperToken = v
	}
	if v := strings.TrimSpace(getenv(EnvAppleUserToken)); v != "" {
		c.Credentials.AppleMusic.UserToken = v
	}
}

// Validate checks the values the CLI cannot run without.
func (c *Config) Validate() error {
	if _, ok := models.ParseProviderKind(c.Account.Provider); !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Account.Provider)
	}
	switch c.Cache.Backend {
	case "", "none", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Transport.RequestsPerSecond < 0 || c.Transport.Burst < 0 {
		return fmt.Errorf("%w: transport rate must not be negative", ErrInvalidConfig)
	}
	return nil
}
