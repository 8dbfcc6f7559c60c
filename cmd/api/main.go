// @title Jementraine API
// @version 1.0
// @description Read-only API over the exercise corpus.
// @license.name MIT
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"jementraine/internal/adapter"
	"jementraine/internal/cache"
	"jementraine/internal/config"
	"jementraine/internal/domain"
	"jementraine/internal/handler"
	"jementraine/internal/logger"
	"jementraine/internal/middleware"
	"jementraine/internal/repository"
	"jementraine/internal/schema"
	"jementraine/internal/service"
	"jementraine/internal/validation"

	_ "jementraine/cmd/api/docs"

	"github.com/gofiber/swagger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	exerciseSchema, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		appLogger.Fatal("Failed to load schema", zap.String("path", cfg.Schema.Path), zap.Error(err))
	}
	validator := validation.NewValidator(exerciseSchema)

	repo := repository.NewExerciseFileRepository(
		cfg.Content.Root,
		cfg.Loader.Workers,
		validator,
		repository.NewLogIssueReporter(appLogger),
		appLogger,
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Redis is optional; without it the catalog is only cached in process.
	var catalogCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(rootCtx, cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, using in-process cache only", zap.Error(err))
		} else {
			defer redisClient.Close()
			catalogCache = adapter.NewRedisCacheAdapter(redisClient)
			appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		}
	}

	exerciseService := service.NewExerciseService(repo, catalogCache, exerciseSchema, cfg.CacheTTLs.Catalog, appLogger)

	if cfg.Content.Watch {
		watcher, err := adapter.NewContentWatcher(cfg.Content.Root, exerciseService, watchDebounce, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to watch content root", zap.String("root", cfg.Content.Root), zap.Error(err))
		}
		go watcher.Run(rootCtx)
		appLogger.Info("Watching content root", zap.String("root", cfg.Content.Root))
	}

	// Warm the catalog so load problems show up at startup.
	if catalog, err := exerciseService.Catalog(rootCtx); err != nil {
		appLogger.Error("Initial catalog load failed", zap.Error(err))
	} else {
		appLogger.Info("Catalog ready", zap.Int("exercises", catalog.Len()))
	}

	exerciseHandler := handler.NewExerciseHandler(exerciseService, validator)
	validationMiddleware := middleware.NewValidationMiddleware(validator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger(appLogger))
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	apiGroup := app.Group("/api")
	exerciseHandler.RegisterRoutes(apiGroup, validationMiddleware)

	go func() {
		appLogger.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("content_root", cfg.Content.Root),
			zap.String("version", cfg.App.Version),
		)
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
