package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"vidx/internal/api"
	"vidx/internal/repositories"
	"vidx/internal/session"
	"vidx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	var creds session.CredentialStore
	var jobCache *repositories.JobCacheRepository
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, run 'vidx setup'", "error", err)
		}
		creds = repositories.NewCredentialRepository(db)
		jobCache = repositories.NewJobCacheRepository(db)
		defer db.Close()
	} else {
		logger.Warn("database unavailable, sessions will not persist", "error", err)
		creds = session.NoCredentials{}
	}

	httpClient := &http.Client{
		Timeout: time.Duration(config.Server.RequestTimeoutSeconds) * time.Second,
	}

	var store *session.Store
	client := api.NewClient(config.Server.BaseURL, httpClient, api.TokenFunc(func() (string, bool) {
		return store.Token()
	}))
	client.SetUploadLimit(config.Upload.MaxSizeMB << 20)
	store = session.NewStore(client, creds, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Client:     client,
		Session:    store,
		JobCache:   jobCache,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "vidx",
		Usage:    "Upload, process and monitor videos on a vidx backend",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrMissingArgument) || errors.Is(err, shared.ErrInvalidArgument) {
			logger.Error(err.Error())
			os.Exit(2)
		}
		logger.Fatalf("application error: %v", err)
	}
}
