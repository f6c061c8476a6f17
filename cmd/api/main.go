package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mediagen/internal/adapter/repo"
	"mediagen/internal/http/handlers"
	"mediagen/internal/http/httpapi"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/infra/geoip"
	"mediagen/internal/middleware"
	"mediagen/internal/orchestrator"
	"mediagen/internal/providers/image"
	"mediagen/internal/providers/video"
	"mediagen/internal/resolver"
	"mediagen/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.PublicBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare media storage")
	}

	// Environment keys win; the credentials table is the fallback so keys
	// can be rotated without a redeploy.
	creds := credentials.NewStore(runner)
	videoKey, imageKey := cfg.VideoAPIKey, cfg.ImageAPIKey
	if videoKey == "" {
		if videoKey, err = creds.VideoAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not load stored video api key")
		}
	}
	if imageKey == "" {
		if imageKey, err = creds.ImageAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not load stored image api key")
		}
	}

	assets := repo.NewAssetRepository(runner)

	svc := orchestrator.New(
		orchestrator.Config{
			PollInterval:    cfg.PollInterval,
			PollMaxAttempts: cfg.PollMaxAttempts,
			StorageRetries:  cfg.StorageRetries,
		},
		orchestrator.Deps{
			Jobs:    repo.NewJobRepository(runner),
			Assets:  assets,
			Store:   store,
			Sources: resolver.New(repo.NewSourceLookup(runner), store),
			Video:   video.NewClient(video.Options{APIKey: videoKey, BaseURL: cfg.VideoBaseURL, Model: cfg.VideoModel, Logger: &logger}),
			Image:   image.NewClient(image.Options{APIKey: imageKey, BaseURL: cfg.ImageBaseURL, Model: cfg.ImageModel, Logger: &logger}),
		},
		&logger,
	)

	if err := svc.Recover(ctx); err != nil {
		logger.Warn().Err(err).Msg("recovery of unsettled jobs failed")
	}

	var countries middleware.CountryLookup
	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable")
	} else if geo != nil {
		countries = geo.CountryCode
		if closer, ok := geo.(io.Closer); ok {
			defer closer.Close()
		}
	}

	app := &handlers.App{
		Service:    svc,
		Assets:     assets,
		Store:      store,
		Stats:      repo.NewStatsRepository(runner),
		DB:         pool,
		Logger:     logger,
		StatsToken: cfg.StatsToken,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg, logger, countries))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	svc.Close()
	logger.Info().Msg("server stopped")
}
