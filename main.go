package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tarotlab/tarot-engine/pkg/config"
	"github.com/tarotlab/tarot-engine/pkg/database"
	"github.com/tarotlab/tarot-engine/pkg/deck"
	"github.com/tarotlab/tarot-engine/pkg/functions"
	"github.com/tarotlab/tarot-engine/pkg/handlers"
	"github.com/tarotlab/tarot-engine/pkg/interpretation"
	"github.com/tarotlab/tarot-engine/pkg/llm"
	"github.com/tarotlab/tarot-engine/pkg/logging"
	"github.com/tarotlab/tarot-engine/pkg/mcp"
	"github.com/tarotlab/tarot-engine/pkg/mcp/tools"
	"github.com/tarotlab/tarot-engine/pkg/middleware"
	"github.com/tarotlab/tarot-engine/pkg/repositories"
	"github.com/tarotlab/tarot-engine/pkg/retry"
	"github.com/tarotlab/tarot-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.IsLocal() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// stores groups the repositories the services need, whichever backend holds them.
type stores struct {
	readings   repositories.ReadingRepository
	ratings    repositories.RatingRepository
	dailyCards repositories.DailyCardRepository
	events     repositories.EventRepository
	catalog    deck.Source
	db         *database.DB // nil for the in-memory store
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("database", cfg.Database.Enabled()),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("version", cfg.Version))

	checks := map[string]handlers.HealthCheck{}

	st, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()
	if st.db != nil {
		checks["database"] = st.db.Health
	}

	catalog := deck.NewCatalog(st.catalog, logger)
	catalog.Load(ctx)

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	invoker, closeInvoker, err := newInvoker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeInvoker()

	templates := interpretation.DefaultTemplates()
	synth := interpretation.NewSynthesizer(templates, interpretation.NewAdvicePicker(cfg.Interpretation.AdviceMode))

	gateway := services.NewEnrichmentGateway(
		invoker,
		newResponseCache(cfg, redisClient, logger),
		llm.NewCircuitBreaker(llm.CircuitBreakerConfig{
			Threshold:  cfg.Interpretation.CircuitThreshold,
			ResetAfter: cfg.Interpretation.CircuitReset,
		}),
		synth,
		st.events,
		services.EnrichmentConfig{
			FunctionName: cfg.AI.FunctionName,
			Temperature:  cfg.AI.Temperature,
			Retry: retry.Options{
				MaxAttempts: cfg.Interpretation.MaxAttempts,
				RetryDelay:  cfg.Interpretation.RetryDelay,
				Timeout:     cfg.Interpretation.AttemptTimeout,
				IsTerminal:  retry.IsTerminal,
			},
		},
		logger,
	)

	readingService := services.NewReadingService(
		catalog,
		synth,
		interpretation.NewScorer(templates),
		gateway,
		st.readings,
		st.ratings,
		st.events,
		services.ReadingServiceConfig{QuestionMaxLength: cfg.Interpretation.QuestionMaxLength},
		logger,
	)
	dailyService := services.NewDailyCardService(catalog, synth, st.dailyCards, st.events, nil, logger)

	// MCP tool surface, audited into the event log.
	audit := mcp.NewAuditLogger(st.events, logger)
	mcpServer := mcp.NewServer("tarot-engine", cfg.Version, audit.Hooks(), logger)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, catalog)
	tools.RegisterReadingTools(mcpServer.MCP(), &tools.ReadingToolDeps{
		Catalog:  catalog,
		Readings: readingService,
		Daily:    dailyService,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, catalog, checks, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(catalog, logger).RegisterRoutes(mux)
	handlers.NewReadingHandler(readingService, catalog, logger).RegisterRoutes(mux)
	handlers.NewDailyCardHandler(dailyService, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.Chain(mux, middleware.RequestID(), middleware.RequestLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting tarot-engine",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			serveErr <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	audit.Wait()
	return nil
}

// openStores connects to Postgres when configured and falls back to the
// in-memory store otherwise.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Warn("No database configured, readings are kept in memory")
		mem := repositories.NewMemoryStore()
		return &stores{
			readings:   mem.Readings(),
			ratings:    mem.Ratings(),
			dailyCards: mem.DailyCards(),
			events:     mem.Events(),
			catalog:    deck.EmbeddedSource{},
		}, func() {}, nil
	}

	connStr := cfg.Database.ConnectionString()
	logger.Info("Connecting to database", zap.String("url", logging.SanitizeConnectionString(connStr)))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !cfg.Database.SkipMigrations {
		if err := database.MigrateURL(connStr, logger); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	var catalogSource deck.Source = deck.EmbeddedSource{}
	if cfg.Database.CatalogFromDB {
		catalogRepo := repositories.NewCatalogRepository(db)
		seeded, err := catalogRepo.SeedIfEmpty(ctx, deck.EmbeddedSource{})
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		if seeded {
			logger.Info("Seeded empty catalog tables from the embedded deck")
		}
		catalogSource = catalogRepo
	}

	return &stores{
		readings:   repositories.NewReadingRepository(db),
		ratings:    repositories.NewRatingRepository(db),
		dailyCards: repositories.NewDailyCardRepository(db),
		events:     repositories.NewEventRepository(db),
		catalog:    catalogSource,
		db:         db,
	}, db.Close, nil
}

// newInvoker picks the text generation backend. A nil invoker leaves every
// reading on template text.
func newInvoker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (functions.Invoker, func(), error) {
	switch cfg.AI.Provider {
	case config.ProviderNone:
		return nil, func() {}, nil
	case config.ProviderFunction:
		return functions.NewHTTPClient(cfg.AI.FunctionsURL, cfg.AI.APIKey, logger), func() {}, nil
	}

	client, err := llm.NewClientForProvider(ctx, llm.ProviderConfig{
		Provider:  cfg.AI.Provider,
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		APIKey:    cfg.AI.APIKey,
		MaxTokens: cfg.AI.MaxTokens,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	if closer, ok := client.(io.Closer); ok {
		closeFn = func() {
			if err := closer.Close(); err != nil {
				logger.Warn("Failed to close AI client", zap.Error(err))
			}
		}
	}
	return functions.NewLLMInvoker(client, logger), closeFn, nil
}

func newResponseCache(cfg *config.Config, client *redis.Client, logger *zap.Logger) services.ResponseCache {
	local := services.NewMemoryResponseCache(cfg.Interpretation.CacheCapacity, cfg.Interpretation.CacheTTL)
	if client == nil {
		return local
	}
	return services.NewTieredResponseCache(local, services.NewRedisResponseCache(client, cfg.Interpretation.CacheTTL, logger))
}
