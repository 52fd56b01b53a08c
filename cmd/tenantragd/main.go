package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akropatel/tenantrag/internal/audit"
	"github.com/akropatel/tenantrag/internal/auth"
	"github.com/akropatel/tenantrag/internal/config"
	"github.com/akropatel/tenantrag/internal/embedder"
	"github.com/akropatel/tenantrag/internal/ingestion"
	"github.com/akropatel/tenantrag/internal/llm"
	"github.com/akropatel/tenantrag/internal/metrics"
	"github.com/akropatel/tenantrag/internal/repository"
	"github.com/akropatel/tenantrag/internal/repository/postgres"
	"github.com/akropatel/tenantrag/internal/retrieval"
	"github.com/akropatel/tenantrag/internal/server"
	"github.com/akropatel/tenantrag/internal/service"
	"github.com/akropatel/tenantrag/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
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

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load retrieval rules: %w", err)
	}

	slog.Info("starting retrieval service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
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
	documentRepo := postgres.NewDocumentRepo(db)

	// Initialize Qdrant index
	index, err := vectorstore.NewQdrantIndex(ctx, cfg.QdrantGRPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer index.Close()
	slog.Info("connected to Qdrant")

	// Initialize embedder
	var embed embedder.Embedder
	switch cfg.EmbeddingProvider {
	case "ollama":
		embed = embedder.NewOllamaEmbedder(embedder.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaEmbeddingModel,
		})
	default:
		embed = embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIEmbeddingModel,
		})
	}
	slog.Info("initialized embedder", "model", embed.ModelName())

	if err := index.EnsureCollection(ctx, embed.Dimension()); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	// Initialize LLM
	llmClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		llm.WithModel(cfg.OpenAILLMModel))
	slog.Info("initialized LLM", "model", cfg.OpenAILLMModel)

	// Diagnostics: audit file, Prometheus counters, structured log.
	auditLog := audit.NewLog(cfg.AuditLogPath, slog.Default())
	metrics.RegisterRetrievalMetrics()
	emitter := retrieval.MultiEmitter{
		auditLog,
		metrics.Emitter{},
		&retrieval.SlogEmitter{Logger: slog.Default()},
	}

	// Initialize the retrieval engine
	engineOpts := []retrieval.Option{
		retrieval.WithConfig(retrieval.Config{
			TopK:                 cfg.DefaultTopK,
			MinSimilarity:        cfg.DefaultMinSimilarity,
			EnsureMinChunks:      cfg.DefaultEnsureMinChunks,
			ExpansionTerms:       rules.ExpansionTerms,
			DisableDegradedRetry: cfg.DisableDegradedRetry,
		}),
		retrieval.WithEmitter(emitter),
		retrieval.WithLogger(slog.Default()),
	}
	if classifier := retrieval.NewKeywordClassifier(rules.DocumentTypes); classifier != nil {
		engineOpts = append(engineOpts, retrieval.WithClassifier(classifier))
	}
	engine := retrieval.NewEngine(embed, index, engineOpts...)

	// Initialize services
	querySvc := service.NewQueryService(engine,
		service.WithLLM(llmClient),
		service.WithTenantRepository(tenantRepo),
		service.WithAuditLog(auditLog),
	)
	documentSvc := service.NewDocumentService(
		ingestion.NewChunker(ingestion.ChunkerConfig{}),
		embed, index, documentRepo,
		service.WithDocumentAudit(auditLog),
	)

	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Expiry = cfg.JWTExpiry

	// Create HTTP server
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		JWT:            auth.NewJWTManager(jwtConfig),
		Engine:         engine,
		Query:          querySvc,
		Documents:      documentSvc,
		AuditLog:       auditLog,
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

// Ensure interfaces are satisfied at compile time
var (
	_ repository.TenantRepository   = (*postgres.TenantRepo)(nil)
	_ repository.DocumentRepository = (*postgres.DocumentRepo)(nil)
	_ vectorstore.Index             = (*vectorstore.QdrantIndex)(nil)
	_ embedder.Embedder             = (*embedder.OpenAIEmbedder)(nil)
	_ llm.LLM                       = (*llm.OpenAIClient)(nil)
)
