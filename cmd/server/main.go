// Package main runs the invitations HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cris-imc/invitaciones-sub001/config"
	"github.com/cris-imc/invitaciones-sub001/internal/albums"
	"github.com/cris-imc/invitaciones-sub001/internal/auth"
	"github.com/cris-imc/invitaciones-sub001/internal/guests"
	"github.com/cris-imc/invitaciones-sub001/internal/identity"
	"github.com/cris-imc/invitaciones-sub001/internal/invitations"
	"github.com/cris-imc/invitaciones-sub001/internal/media"
	"github.com/cris-imc/invitaciones-sub001/internal/middleware"
	"github.com/cris-imc/invitaciones-sub001/internal/quiz"
	"github.com/cris-imc/invitaciones-sub001/pkg/database"
	"github.com/cris-imc/invitaciones-sub001/pkg/redis"
	"github.com/cris-imc/invitaciones-sub001/pkg/response"
	"github.com/cris-imc/invitaciones-sub001/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis only backs the public rate limiter; without it the limiter is a
	// no-op and everything else works.
	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis disabled", zap.Error(err))
		} else {
			defer client.Close()
			rdb = client.Client
		}
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
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

	// Wizard uploads enforce minimum dimensions; guest album snapshots do
	// not, they only get the size ceiling and the optimize stage.
	wizardPipeline := media.NewPipeline(media.Config{
		MaxFileSize:  cfg.Media.MaxFileSize,
		MinWidth:     cfg.Media.MinWidth,
		MinHeight:    cfg.Media.MinHeight,
		MaxDimension: cfg.Media.MaxDimension,
		JPEGQuality:  cfg.Media.JPEGQuality,
	})
	albumPipeline := media.NewPipeline(media.Config{
		MaxFileSize:  cfg.Media.MaxFileSize,
		MaxDimension: cfg.Media.MaxDimension,
		JPEGQuality:  cfg.Media.JPEGQuality,
	})

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Invitations
	invitationRepo := invitations.NewRepository(pool)
	guestRepo := guests.NewRepository(pool)
	albumRepo := albums.NewRepository(pool)
	resolver := identity.NewResolver(invitationRepo, guestRepo)
	invitationHandler := invitations.NewHandler(invitationRepo, resolver, guestRepo, albumRepo, logger)

	// Guests and RSVP
	guestHandler := guests.NewHandler(guestRepo, invitationRepo, logger)

	// Quiz
	quizRepo := quiz.NewRepository(pool)
	quizHandler := quiz.NewHandler(quizRepo, invitationRepo, logger)

	// Collaborative album
	var albumObjects albums.ObjectStore
	if s3Client != nil {
		albumObjects = s3Client
	}
	albumHandler := albums.NewHandler(albumRepo, invitationRepo, resolver, albumPipeline, albumObjects, logger)

	// Media uploads (wizard)
	mediaHandler := media.NewHandler(wizardPipeline, s3Client, invitationRepo, cfg.Media.MaxFileSize, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public guest-facing endpoints, rate limited per client IP.
	public := router.Group("/api")
	public.Use(middleware.RateLimit(rdb, logger, cfg.Media.RateLimit,
		time.Duration(cfg.Media.RateWindow)*time.Second))
	{
		public.GET("/invitations/:slug", invitationHandler.GetPublic)
		public.PUT("/guests/:id", guestHandler.RSVP)
		public.POST("/quiz", quizHandler.Submit)
		public.GET("/quiz", quizHandler.GetStats)
		public.GET("/invitations/:slug/album", albumHandler.PublicGallery)
		public.POST("/invitations/:slug/album/upload", albumHandler.Upload)
	}

	// Host endpoints (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/invitations", invitationHandler.List)
		api.POST("/invitations", invitationHandler.Create)
		api.GET("/invitations/:slug/manage", invitationHandler.Get)
		api.PATCH("/invitations/:slug", invitationHandler.Update)
		api.PUT("/invitations/:slug", invitationHandler.Replace)
		api.DELETE("/invitations/:slug", invitationHandler.Delete)

		api.POST("/invitations/:slug/guests", guestHandler.Create)
		api.GET("/invitations/:slug/guests", guestHandler.ListByInvitation)
		api.DELETE("/guests/:id", guestHandler.Delete)

		api.GET("/invitations/:slug/album/all", albumHandler.HostGallery)
		api.PATCH("/invitations/:slug/album", albumHandler.UpdateSettings)
		api.PATCH("/photos/:id/moderate", albumHandler.Moderate)
		api.DELETE("/photos/:id", albumHandler.DeletePhoto)

		api.POST("/upload", mediaHandler.Upload)
		api.POST("/upload/presign", mediaHandler.Presign)
	}

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
