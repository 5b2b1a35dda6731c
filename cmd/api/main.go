package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"composer/internal/adapter/repo"
	"composer/internal/compose"
	"composer/internal/http/handlers"
	"composer/internal/http/httpapi"
	"composer/internal/infra"
	"composer/internal/infra/geoip"
	"composer/internal/middleware"
	"composer/internal/providers/genai"
	"composer/internal/providers/image"
	"composer/internal/providers/prompt"
	"composer/internal/providers/stock"
	"composer/internal/recency"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// DB pool is optional; without DATABASE_URL the recency store runs
	// memory-only.
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	var recencyRepo recency.Repository
	if pool != nil {
		defer pool.Close()
		pgRepo := repo.NewRecencyRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		recencyRepo = pgRepo
	}

	store := recency.NewStore(recency.Options{
		HistoryCap: cfg.HistoryCap,
		PromptCap:  cfg.RecentPromptsCap,
		Repo:       recencyRepo,
		Logger:     logger,
	})
	if err := store.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to hydrate recency store")
	}

	genaiClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}
	if !genaiClient.Configured() {
		logger.Warn().Msg("GEMINI_API_KEY missing, serving synthetic images")
	}
	generator := image.NewGeminiGenerator(genaiClient)

	var enhancer prompt.Enhancer = prompt.NewStaticEnhancer()
	if genaiClient.Configured() {
		enhancer = prompt.NewGeminiEnhancer(genaiClient)
	}

	stockHTTP := &http.Client{Timeout: cfg.StockTimeout}
	aggregator := stock.NewAggregator(stock.AggregatorOptions{
		Providers: []stock.Provider{
			stock.NewPexelsProvider(cfg.PexelsAPIKey, stockHTTP),
			stock.NewUnsplashProvider(cfg.UnsplashAPIKey, stockHTTP),
			stock.NewPixabayProvider(cfg.PixabayAPIKey, stockHTTP),
		},
		HTTPClient: stockHTTP,
		CacheTTL:   cfg.PromoteCacheTTL,
		PerPage:    cfg.StockPerPage,
		Logger:     logger,
	})

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip resolver disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Logger:            logger,
		Orchestrator:      compose.NewOrchestrator(generator, store, logger),
		Variations:        compose.NewVariationEngine(generator, logger),
		Stock:             aggregator,
		Store:             store,
		Enhancer:          enhancer,
		GenerationTimeout: cfg.GenerationTimeout,
		VariationCount:    cfg.VariationCount,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:     cfg.AllowedOrigins,
		DefaultLocale:      "en",
		CountryLookup:      countryLookup,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
