package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/desertthunder/socially/internal/services"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	deps, err := buildDependencies(config, metrics, logger)
	if err != nil {
		logger.Fatalf("startup error: %v", err)
	}
	defer deps.Close()

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Providers:  deps.providers,
		Cache:      deps.cache,
		Repository: deps.repo,
		Registry:   registry,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "socially",
		Usage:    "Search, export and transfer music across Spotify & Apple Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			deps.Close()
			os.Exit(0)
		}
		deps.Close()
		logger.Fatalf("application error: %v", err)
	}
}
