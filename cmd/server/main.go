// Package main runs the marketplace BFF HTTP server: session discovery,
// bookings, notifications and the WebSocket feed.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/serene-wellness/backend/config"
	"github.com/serene-wellness/backend/internal/auth"
	"github.com/serene-wellness/backend/internal/bookings"
	"github.com/serene-wellness/backend/internal/catalog"
	"github.com/serene-wellness/backend/internal/discovery"
	"github.com/serene-wellness/backend/internal/media"
	"github.com/serene-wellness/backend/internal/middleware"
	"github.com/serene-wellness/backend/internal/models"
	"github.com/serene-wellness/backend/internal/notifications"
	"github.com/serene-wellness/backend/internal/realtime"
	"github.com/serene-wellness/backend/internal/upstream"
	"github.com/serene-wellness/backend/pkg/clock"
	"github.com/serene-wellness/backend/pkg/database"
	"github.com/serene-wellness/backend/pkg/queue"
	"github.com/serene-wellness/backend/pkg/redis"
	"github.com/serene-wellness/backend/pkg/response"
	"github.com/serene-wellness/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.AccessKeyID != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	feedPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, feedPubSub, feedPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Upstream marketplace API and session catalog
	marketplace := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		time.Duration(cfg.Upstream.TimeoutSec)*time.Second, logger)
	clk := clock.Real{}
	catalogSvc := catalog.NewService(marketplace, rdb, clk,
		time.Duration(cfg.Catalog.CacheTTLSec)*time.Second, logger)
	refresher := catalog.NewRefresher(catalogSvc, jobQueue, clk,
		time.Duration(cfg.Catalog.RefreshIntervalSec)*time.Second, logger)
	refresher.Start()
	defer refresher.Stop()

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Media (optional when S3 is not configured)
	var imageResolver discovery.ImageResolver
	var mediaHandler *media.Handler
	if s3Client != nil {
		mediaSvc := media.NewService(media.NewRepository(pool), s3Client, logger)
		imageResolver = mediaSvc
		mediaHandler = media.NewHandler(mediaSvc, logger)
	}

	// Discovery
	discoveryHandler := discovery.NewHandler(catalogSvc, imageResolver, cfg.Catalog.KnownCities, logger)

	// Bookings
	bookingRepo := bookings.NewRepository(pool)
	bookingHandler := bookings.NewHandler(bookingRepo, catalogSvc, marketplace, jobQueue, logger)

	// Notifications
	notificationRepo := notifications.NewRepository(pool)
	notificationHandler := notifications.NewHandler(notificationRepo)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID.String(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Discovery (public; a bearer token personalizes booked-session exclusion)
	discoveryGroup := router.Group("/discovery")
	{
		discoveryGroup.GET("/sessions", discoveryHandler.ListSessions)
		discoveryGroup.GET("/statistics", discoveryHandler.GetStatistics)
		discoveryGroup.GET("/cities", discoveryHandler.ListCities)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/bookings", bookingHandler.Create)
		api.GET("/bookings", bookingHandler.ListMine)
		api.GET("/professional/bookings",
			middleware.RequireRole(models.RoleProfessional, models.RoleAdmin),
			bookingHandler.ListForProfessional)

		api.GET("/notifications", notificationHandler.List)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)

		if mediaHandler != nil {
			api.POST("/sessions/:id/image",
				middleware.RequireRole(models.RoleProfessional, models.RoleAdmin),
				mediaHandler.UploadImage)
		}
	}

	// WebSocket notification feed (token in query)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
