package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xxkhanxx77/aura-poc-llm/internal/auth"
	"github.com/xxkhanxx77/aura-poc-llm/internal/cache"
	"github.com/xxkhanxx77/aura-poc-llm/internal/config"
	"github.com/xxkhanxx77/aura-poc-llm/internal/embedder"
	"github.com/xxkhanxx77/aura-poc-llm/internal/extract"
	"github.com/xxkhanxx77/aura-poc-llm/internal/ingestion"
	"github.com/xxkhanxx77/aura-poc-llm/internal/llm"
	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository/postgres"
	"github.com/xxkhanxx77/aura-poc-llm/internal/server"
	"github.com/xxkhanxx77/aura-poc-llm/internal/service"
	"github.com/xxkhanxx77/aura-poc-llm/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("AURA_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting screening service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"embedding_provider", cfg.EmbeddingProvider,
	)

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	// Initialize repositories
	tenantRepo := postgres.NewTenantRepo(db)
	jobRepo := postgres.NewJobRepo(db)
	resumeRepo := postgres.NewResumeRepo(db)
	resultRepo := postgres.NewResultRepo(db)
	feedbackRepo := postgres.NewFeedbackRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()
	slog.Info("connected to Qdrant")

	// Cache and quota counters live in Redis when one is configured, in
	// process memory otherwise.
	var (
		cacheStore cache.Store
		ledger     quota.Ledger
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
		cacheStore = cache.NewRedisStore(redisClient)
		ledger = quota.NewRedisLedger(redisClient)
		slog.Info("connected to Redis")
	} else {
		memStore := cache.NewMemoryStore()
		defer memStore.Close()
		cacheStore = memStore
		ledger = quota.NewMemoryLedger()
		slog.Warn("no Redis configured, cache and quota counters are process-local")
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	slog.Info("initialized embedder", "model", emb.ModelName(), "dimension", emb.Dimension())

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return err
	}
	slog.Info("initialized LLM client", "model", cfg.LLMModel())

	pipeline := ingestion.NewPipeline(emb, vectorStore, ingestion.PipelineConfig{
		Chunker: ingestion.ChunkerConfig{
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.ChunkOverlap,
		},
	})

	// Initialize services
	tenantSvc := service.NewTenantService(tenantRepo, vectorStore, ledger, emb, cfg.DefaultLLMBudget, slog.Default())
	jobSvc := service.NewJobService(jobRepo, pipeline, slog.Default())
	resumeSvc := service.NewResumeService(resumeRepo, pipeline, extract.NewFileExtractor(), vectorStore, slog.Default())
	screeningSvc := service.NewScreeningService(
		tenantRepo, jobRepo, resumeRepo, resultRepo, feedbackRepo,
		cacheStore, ledger, vectorStore, llmClient, slog.Default(),
		service.ScreeningConfig{
			Model:               cfg.LLMModel(),
			MaxResumesPerScreen: cfg.MaxResumesPerScreen,
			WorkerCount:         cfg.ScreeningWorkers,
			CacheTTL:            cfg.CacheTTL,
			ChunkTopK:           cfg.ChunkTopK,
			DefaultLLMBudget:    cfg.DefaultLLMBudget,
		},
	)

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
		jwtConfig.Expiry = cfg.JWTExpiry
		jwtManager = auth.NewJWTManager(jwtConfig)
	} else {
		slog.Warn("no JWT secret configured, bearer tokens are disabled")
	}
	authenticator := auth.NewAuthenticator(tenantRepo, jwtManager, cfg.AdminAPIKey)

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: cfg.AllowedOrigins,
		Ready:          db.Ping,
	}, &server.Handlers{
		Tenants:   tenantSvc,
		Jobs:      jobSvc,
		Resumes:   resumeSvc,
		Screening: screeningSvc,
		Auth:      authenticator,
		Logger:    slog.Default(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// newEmbedder builds the embedding client for the configured provider.
func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIEmbeddingModel,
		})
	case config.ProviderOllama:
		return embedder.NewOllamaEmbedder(embedder.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbeddingModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// newLLMClient builds the scoring model client for the configured provider.
func newLLMClient(cfg *config.Config) (llm.LLM, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		opts := []llm.OpenAIOption{llm.WithOpenAIModel(cfg.OpenAILLMModel)}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, llm.WithOpenAIBaseURL(cfg.OpenAIBaseURL))
		}
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, opts...)
	case config.ProviderOllama:
		return llm.NewOllamaClient(
			llm.WithBaseURL(cfg.OllamaURL),
			llm.WithModel(cfg.OllamaLLMModel),
		), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Ensure interfaces are satisfied at compile time
var (
	_ repository.TenantRepository   = (*postgres.TenantRepo)(nil)
	_ repository.JobRepository      = (*postgres.JobRepo)(nil)
	_ repository.ResumeRepository   = (*postgres.ResumeRepo)(nil)
	_ repository.ResultRepository   = (*postgres.ResultRepo)(nil)
	_ repository.FeedbackRepository = (*postgres.FeedbackRepo)(nil)
	_ vectorstore.VectorStore       = (*vectorstore.QdrantStore)(nil)
	_ embedder.Embedder             = (*embedder.OllamaEmbedder)(nil)
	_ embedder.Embedder             = (*embedder.OpenAIEmbedder)(nil)
	_ llm.LLM                       = (*llm.OllamaClient)(nil)
	_ llm.LLM                       = (*llm.OpenAIClient)(nil)
	_ cache.Store                   = (*cache.MemoryStore)(nil)
	_ cache.Store                   = (*cache.RedisStore)(nil)
	_ quota.Ledger                  = (*quota.MemoryLedger)(nil)
	_ quota.Ledger                  = (*quota.RedisLedger)(nil)
)
