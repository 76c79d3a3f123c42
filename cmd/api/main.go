package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"growf/platform-backend/internal/applications"
	"growf/platform-backend/internal/auth"
	"growf/platform-backend/internal/config"
	"growf/platform-backend/internal/database"
	"growf/platform-backend/internal/documents"
	"growf/platform-backend/internal/httpx"
	"growf/platform-backend/internal/messages"
	"growf/platform-backend/internal/notifications"
	"growf/platform-backend/internal/notifications/websocket"
	"growf/platform-backend/internal/programs"
	"growf/platform-backend/internal/ratelimit"
	"growf/platform-backend/internal/users"
	"growf/platform-backend/pkg/storage"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.json"), "path to the JSON config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("Failed to close database", zap.Error(err))
		}
	}()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, models()...); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewManager(cfg.Server.CORSOrigins, logger)
	router, cleanup, err := buildRouter(ctx, cfg, db, hub, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("environment", cfg.Server.Environment))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}

func models() []any {
	return []any{
		&users.User{},
		&users.Organization{},
		&users.Company{},
		&programs.Program{},
		&applications.Application{},
		&applications.StatusChange{},
		&documents.Document{},
		&messages.Message{},
		&notifications.Notification{},
	}
}

// buildRouter wires every feature package. The returned cleanup releases
// the external clients opened here.
func buildRouter(ctx context.Context, cfg *config.Config, db *gorm.DB, hub *websocket.Manager, logger *zap.Logger) (*gin.Engine, func(), error) {
	devMode := cfg.IsDevelopment()
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sqlxDB, err := database.SQLX(db)
	if err != nil {
		return nil, cleanup, err
	}

	objects, err := newObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, cleanup, err
	}

	var email notifications.EmailSender
	if cfg.Email.Enabled {
		sender, err := notifications.NewSESSender(ctx, cfg.Email.Region, cfg.Email.FromAddress)
		if err != nil {
			return nil, cleanup, err
		}
		email = sender
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, rate limits are per instance", zap.Error(err))
		} else {
			limiter = ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(client, "growf:ratelimit"), limiter)
		}
		closers = append(closers, func() { _ = client.Close() })
	}

	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL.Duration)

	usersRepo := users.NewRepository(db)
	usersService := users.NewService(usersRepo, logger)
	authService := auth.NewService(usersRepo, tokens, cfg.Security.BcryptCost, logger)

	notificationService := notifications.NewService(notifications.NewGormStore(db), hub, email, usersRepo, logger)
	programService := programs.NewService(programs.NewRepository(db), usersRepo, cfg.Workflow.StrictTransitions, logger)
	programService.EnablePublicCache(cfg.Cache.PublicProgramsTTL.Duration)
	closers = append(closers, programService.Close)
	applicationService := applications.NewService(applications.NewRepository(db), programService, notificationService, cfg.Workflow.StrictTransitions, logger)
	documentService := documents.NewService(documents.NewRepository(sqlxDB), applicationService, objects, documents.Options{
		MaxFileSize: cfg.Storage.MaxFileSize,
		PresignTTL:  cfg.Storage.PresignTTL.Duration,
	}, logger)
	messageService := messages.NewService(messages.NewRepository(db), applicationService, notificationService, logger)

	router := gin.New()
	router.Use(gin.Recovery(), httpx.RequestLogger(logger), httpx.CORS(cfg.Server.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":       status,
			"timestamp":    time.Now().UTC(),
			"connections":  hub.ConnectionCount(),
			"public_cache": publicCacheStats(programService),
		})
	})

	window := time.Minute
	loginLimit := ratelimit.Middleware(limiter, "login", cfg.RateLimit.LoginPerMinute, window, ratelimit.ByIP, logger, devMode)
	applyLimit := ratelimit.Middleware(limiter, "apply", cfg.RateLimit.ApplyPerMinute, window, ratelimit.ByUser, logger, devMode)

	public := router.Group("/api/v1")
	authenticated := router.Group("/api/v1")
	authenticated.Use(httpx.Authenticate(tokens, devMode))

	auth.NewHandler(authService, logger, devMode).RegisterRoutes(public, authenticated, loginLimit)

	programHandler := programs.NewHandler(programService, logger, devMode)
	programHandler.RegisterPublicRoutes(public)
	programHandler.RegisterRoutes(authenticated)

	applications.NewHandler(applicationService, logger, devMode).RegisterRoutes(authenticated, applyLimit)
	documents.NewHandler(documentService, logger, devMode).RegisterRoutes(authenticated)
	messages.NewHandler(messageService, logger, devMode).RegisterRoutes(authenticated)
	notifications.NewHandler(notificationService, hub, logger, devMode).RegisterRoutes(authenticated)
	users.NewHandler(usersService, logger, devMode).RegisterRoutes(authenticated)

	return router, cleanup, nil
}

func publicCacheStats(s *programs.Service) gin.H {
	items, pages := s.CacheStats()
	return gin.H{"items": items, "pages": pages}
}

// newObjectStore falls back to process memory when no bucket is configured,
// which is only suitable for local development.
func newObjectStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.ObjectStore, error) {
	if cfg.Bucket == "" {
		logger.Warn("No storage bucket configured, documents are kept in memory")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:       cfg.Bucket,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UsePathStyle: cfg.UsePathStyle,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
