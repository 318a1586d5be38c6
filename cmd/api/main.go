package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/api/handlers"
	"github.com/luminai/backend/internal/caption"
	"github.com/luminai/backend/internal/cache/redis"
	"github.com/luminai/backend/internal/ingestion"
	"github.com/luminai/backend/internal/lifecycle"
	"github.com/luminai/backend/internal/llm"
	"github.com/luminai/backend/internal/metrics"
	"github.com/luminai/backend/internal/middleware/security"
	"github.com/luminai/backend/internal/quiz"
	"github.com/luminai/backend/internal/retrieval"
	"github.com/luminai/backend/internal/splitter"
	"github.com/luminai/backend/internal/storage/blob"
	"github.com/luminai/backend/internal/storage/sqlite"
	"github.com/luminai/backend/internal/summary"
	"github.com/luminai/backend/internal/vector/milvus"
	"github.com/luminai/backend/pkg/config"
	appLogger "github.com/luminai/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting LuminAI backend")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	var embeddingCache *redis.Client
	if cfg.Redis.Enabled {
		embeddingCache, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLMin)*time.Minute,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, embedding cache disabled", zap.Error(err))
			embeddingCache = nil
		} else {
			defer embeddingCache.Close()
		}
	}

	uploadsStore, err := blob.NewStore(cfg.Storage.UploadsDir)
	if err != nil {
		appLogger.Fatal("Failed to create uploads store", zap.Error(err))
	}
	imagesStore, err := blob.NewStore(cfg.Storage.ImagesDir)
	if err != nil {
		appLogger.Fatal("Failed to create images store", zap.Error(err))
	}

	llmClient := llm.NewClient(cfg.LLM, cfg.Embedding, embeddingCache)

	split := splitter.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	processor := ingestion.NewProcessor(uploadsStore, llmClient, milvusClient, split)
	engine := retrieval.NewEngine(llmClient, milvusClient, cfg.Summary.TopK, cfg.Summary.GroupLimit)
	teardown := lifecycle.NewManager(milvusClient, sqliteClient, uploadsStore)
	orchestrator := summary.NewOrchestrator(engine, llmClient, teardown, cfg.Summary, cfg.LLM.Model)
	quizGenerator := quiz.NewGenerator(llmClient, cfg.Quiz)
	captionService := caption.NewService(imagesStore, llmClient, cfg.Caption)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		metrics.RequestDuration.WithLabelValues(c.Path()).Observe(time.Since(start).Seconds())
		return err
	})

	documentHandler := handlers.NewDocumentHandler(uploadsStore, sqliteClient, processor)
	summaryHandler := handlers.NewSummaryHandler(orchestrator)
	quizHandler := handlers.NewQuizHandler(quizGenerator)
	captionHandler := handlers.NewCaptionHandler(imagesStore, sqliteClient, captionService)

	api := app.Group("/api/v1")

	api.Post("/documents/upload", documentHandler.UploadDocument)
	api.Post("/documents/latest", documentHandler.LatestDocument)
	api.Post("/documents/ingest", documentHandler.IngestDocument)

	api.Post("/summaries", summaryHandler.GenerateSummary)
	api.Post("/quizzes", quizHandler.GenerateQuiz)

	api.Post("/images/upload", captionHandler.UploadImage)
	api.Post("/images/caption", captionHandler.CaptionImage)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
