package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/socially/internal/models"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the embedded template, optionally linking a provider.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if !cmd.Bool("force") {
			if config, err = shared.LoadConfig(configPath); err != nil {
				return err
			}
			r.logger.Info("config file exists, updating", "path", configPath)
		}
	}
	if config == nil {
		config = shared.DefaultConfig()
	}

	if p := cmd.String("provider"); p != "" {
		kind, ok := models.ParseProviderKind(p)
		if !ok {
			return fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidFlag, p)
		}
		config.Account.Provider = string(kind)
	}
	if v := cmd.String("spotify-token"); v != "" {
		config.Credentials.Spotify.AccessToken = v
	}
	if v := cmd.String("apple-developer-token"); v != "" {
		config.Credentials.AppleMusic.DeveloperToken = v
	}
	if v := cmd.String("apple-user-token"); v != "" {
		config.Credentials.AppleMusic.UserToken = v
	}
	if v := cmd.String("storefront"); v != "" {
		config.Credentials.AppleMusic.Storefront = v
	}

	if err := config.Validate(); err != nil {
		return err
	}
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.config = config
	r.logger.Info("config saved", "path", configPath, "provider", config.Account.Provider)
	return r.writePlain("✓ Config written to %s (linked provider: %s)\n", configPath, config.Account.Provider)
}

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if path := cmd.String("database"); path != "" {
		config.Database.Path = path
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	current, pending, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d, %d pending)\n", config.Database.Path, current, pending)
}
