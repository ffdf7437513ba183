package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"tennis-transform/internal/http/handlers"
	httpapi "tennis-transform/internal/http/httpapi"
	"tennis-transform/internal/infra"
	"tennis-transform/internal/middleware"
	"tennis-transform/internal/providers/openai"
	"tennis-transform/internal/transform"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := infra.NewLogger(os.Getenv("APP_ENV"))
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := infra.NewLogger(cfg.AppEnv)
	logger.Info().Str("api_key", cfg.APIKeyHint()).Msg("openai credentials loaded")

	client, err := openai.NewClient(openai.Options{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Organization:   cfg.OpenAIOrg,
		AnalysisModel:  cfg.AnalysisModel,
		ImageModel:     cfg.ImageModel,
		Size:           cfg.ImageSize,
		Quality:        cfg.ImageQuality,
		AnalysisDetail: cfg.AnalysisDetail,
		CallTimeout:    cfg.ProviderCallTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build openai client")
	}

	pipeline, err := transform.PipelineByName(cfg.PipelineVariant)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid PIPELINE_VARIANT")
	}
	if pipeline, err = transform.WithStages(pipeline, cfg.PipelineStages); err != nil {
		logger.Fatal().Err(err).Msg("invalid PIPELINE_STAGES")
	}

	stats := transform.NewStats()
	orchestrator, err := transform.New(transform.Options{
		Client:         client,
		Pipeline:       pipeline,
		Budget:         cfg.RequestBudget,
		MinStageBudget: cfg.MinStageBudget,
		MaxImageBytes:  cfg.MaxUploadBytes,
		Language:       cfg.AnalysisLanguage,
		Logger:         &logger,
		Observer:       stats,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build transform pipeline")
	}
	analysisModel, imageModel := client.Models()
	logger.Info().
		Str("pipeline", pipeline.Name).
		Interface("stages", pipeline.Stages).
		Bool("analysis", pipeline.DoAnalysis).
		Str("analysis_model", analysisModel).
		Str("image_model", imageModel).
		Dur("budget", cfg.RequestBudget).
		Msg("transform pipeline ready")

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	app := handlers.NewApp(orchestrator, stats, &logger, cfg.MaxUploadBytes)
	app.Pipeline = pipeline.Name
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		Limiter:        limiter,
		Locales:        middleware.SupportedLocales(cfg.AnalysisLanguage),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxy:     cfg.TrustProxyHeaders,
	})

	server := infra.NewHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msgf("API listening on %s", server.Addr())
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}

// newLimiter prefers a shared redis window when REDIS_URL is reachable.
func newLimiter(cfg *infra.Config, logger infra.Logger) (middleware.Limiter, func()) {
	if cfg.RateLimitPerMin <= 0 {
		return nil, func() {}
	}
	memory := middleware.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	if cfg.RedisURL == "" {
		return memory, func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, using in-memory rate limiter")
		return memory, func() {}
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, using in-memory rate limiter")
		_ = rdb.Close()
		return memory, func() {}
	}
	logger.Info().Str("addr", opts.Addr).Msg("rate limiter backed by redis")
	return middleware.NewRedisLimiter(rdb, cfg.RateLimitPerMin, time.Minute), func() { _ = rdb.Close() }
}
