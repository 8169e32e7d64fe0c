package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"github.com/arturoeanton/blaize-bazaar/internal/adapter/ai"
	"github.com/arturoeanton/blaize-bazaar/internal/adapter/docs"
	"github.com/arturoeanton/blaize-bazaar/internal/adapter/store"
	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/handler"
	"github.com/arturoeanton/blaize-bazaar/internal/mcp"
	"github.com/arturoeanton/blaize-bazaar/internal/middleware"
	"github.com/arturoeanton/blaize-bazaar/internal/port"
	"github.com/arturoeanton/blaize-bazaar/internal/service"
	"github.com/arturoeanton/blaize-bazaar/pkg/config"
)

const version = "1.0.0"

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("🚀 Starting Blaize Bazaar",
		zap.String("port", cfg.Port),
		zap.String("region", cfg.AWSRegion),
		zap.String("database", cfg.DSN()),
		zap.String("vector_backend", cfg.VectorBackend),
		zap.Bool("knowledge_base", cfg.KnowledgeBaseID != ""),
		zap.Bool("mcp_enabled", cfg.MCPEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────────
	catalog, err := store.NewCatalogStore(cfg.PostgresDSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer catalog.Close()

	var similar port.SimilaritySearcher = catalog
	if cfg.VectorBackend == config.VectorBackendQdrant {
		qdrant, err := store.NewQdrantSearcher(store.QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect to qdrant", zap.Error(err))
		}
		defer qdrant.Close()
		similar = qdrant
	}

	// ── AWS Adapters ─────────────────────────────────────────────────────
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load AWS configuration", zap.Error(err))
	}

	bedrock := ai.NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), ai.BedrockConfig{
		EmbedModelID:    cfg.EmbedModelID,
		EmbedDimension:  cfg.EmbeddingDimension,
		GenerateModelID: cfg.GenerationModelID,
	}, logger)
	kb := ai.NewKnowledgeBase(bedrockagentruntime.NewFromConfig(awsCfg), cfg.KnowledgeBaseID, logger)
	sink := docs.NewS3Sink(s3.NewFromConfig(awsCfg), cfg.KBBucket, logger)
	syncTrigger := docs.NewLambdaSync(lambda.NewFromConfig(awsCfg), cfg.KBSyncFunction, logger)

	// ── Services ─────────────────────────────────────────────────────────
	endpoints := []domain.ModelEndpoint{
		domain.NewModelEndpoint(domain.ModelClaude35Sonnet, cfg.ClaudeARN()),
		domain.NewModelEndpoint(domain.ModelClaude3Haiku, cfg.HaikuARN()),
	}
	searchService := service.NewSearchService(bedrock, catalog, similar, logger)
	insightsService := service.NewInsightsService(catalog, bedrock, cfg.InsightsModelID, logger)
	chatService := service.NewChatService(bedrock, kb, endpoints, logger)
	documentService := service.NewDocumentService(sink, syncTrigger, logger)
	sessions := service.NewSessionStore(cfg.SessionTTL(), logger)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	if !cfg.IsProduction() {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  []string{cfg.FrontendURL},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}))
	app.Use(middleware.RequestLogger(logger))

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	handler.NewHealthHandler(catalog, cfg.AppName, version).Register(api)
	handler.NewInsightsHandler(insightsService).Register(api)
	handler.NewSearchHandler(searchService).Register(api)
	handler.NewChatHandler(chatService, sessions).Register(api)
	handler.NewDocumentsHandler(documentService, sessions).Register(api)

	// ── Document inbox ───────────────────────────────────────────────────
	if cfg.KBInboxDir != "" {
		inbox, err := docs.NewInboxWatcher(cfg.KBInboxDir, documentService, logger)
		if err != nil {
			logger.Fatal("failed to watch document inbox", zap.Error(err))
		}
		defer inbox.Close()
		go func() {
			if err := inbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("document inbox stopped", zap.Error(err))
			}
		}()
	}

	// ── MCP Server (separate port) ───────────────────────────────────────
	var mcpServer *mcp.Server
	if cfg.MCPEnabled {
		mcpServer = mcp.NewServer(searchService, chatService, insightsService, cfg.MCPPort, version, logger)
		go func() {
			if err := mcpServer.Start(); err != nil {
				logger.Error("MCP server failed", zap.Error(err))
			}
		}()
	}

	// ── Shutdown ─────────────────────────────────────────────────────────
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if mcpServer != nil {
			_ = mcpServer.Shutdown(shutdownCtx)
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	// ── Start ────────────────────────────────────────────────────────────
	logger.Info("🌐 Fiber listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build(zap.Fields(zap.String("app", cfg.AppName)))
}
