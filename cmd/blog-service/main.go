package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-blog/internal/cache"
	"github.com/weiawesome/wes-blog/internal/clock"
	"github.com/weiawesome/wes-blog/internal/config"
	"github.com/weiawesome/wes-blog/internal/domain"
	"github.com/weiawesome/wes-blog/internal/handler"
	"github.com/weiawesome/wes-blog/internal/media"
	"github.com/weiawesome/wes-blog/internal/repository"
	"github.com/weiawesome/wes-blog/internal/service"
	"github.com/weiawesome/wes-blog/pkg/database"
	"github.com/weiawesome/wes-blog/pkg/jwt"
	pkglog "github.com/weiawesome/wes-blog/pkg/log"
	"github.com/weiawesome/wes-blog/pkg/middleware"
	"github.com/weiawesome/wes-blog/pkg/pubsub"
	"github.com/weiawesome/wes-blog/pkg/storage"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: "blog-service",
	})
	logger := pkglog.L()

	logger.Info().Str("version", version).Str("db_driver", cfg.Database.Driver).
		Str("storage_type", cfg.Storage.Type).Str("feed_cache", cfg.FeedCache.Driver).
		Str("events", cfg.Events.Driver).Msg("starting blog service")

	ctx := context.Background()

	// Connect to database using GORM
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, domain.AllModels()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// Initialize feed cache
	feedCache, redisClient, err := initFeedCache(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize feed cache")
	}
	defer feedCache.Close()

	// The redis event driver shares the cache's client when there is one.
	if cfg.Events.Driver == "redis" && redisClient == nil {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	publisher, err := pubsub.NewPublisher(cfg.Events, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	defer publisher.Close()

	// Initialize storage
	store, err := initStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	images := media.NewImageStore(store, cfg.Media)
	logger.Info().Msg("storage initialized successfully")

	// Initialize repositories and services
	users := repository.NewGormUserRepository(db)
	contentService := service.NewContentService(service.ContentRepositories{
		Users:    users,
		Groups:   repository.NewGormGroupRepository(db),
		Posts:    repository.NewGormPostRepository(db),
		Comments: repository.NewGormCommentRepository(db),
	}, images, publisher, clock.Real{})
	graphService := service.NewSocialGraphService(users, repository.NewGormFollowRepository(db), publisher)
	feedService := service.NewFeedService(contentService, graphService, feedCache, cfg.FeedCache.TTL)

	// Initialize auth middleware
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessDuration, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token validator")
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens, cfg.Auth.LoginURL)

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(contentService, graphService, feedService, images, authMiddleware)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	// Register routes
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("blog service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down blog service")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("blog service stopped")
}

// initFeedCache builds the configured feed cache. The redis client is
// returned so other components can share it; it is nil for "memory".
func initFeedCache(cfg *config.Config) (cache.FeedCache, *redis.Client, error) {
	switch cfg.FeedCache.Driver {
	case "redis":
		c, err := cache.NewRedisFeedCache(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.FeedCache.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Client(), nil
	case "memory", "":
		return cache.NewMemoryFeedCache(clock.Real{}), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported feed cache driver: %s", cfg.FeedCache.Driver)
	}
}

// initStorage initializes the storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return storage.NewS3Storage(ctx, cfg.Storage.S3)
	case "local":
		return storage.NewLocalStorage(cfg.Storage.Local)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
