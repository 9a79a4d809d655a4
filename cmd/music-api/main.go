package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stitchmusic/music-api/cmd/music-api/middleware"
	"github.com/stitchmusic/music-api/cmd/music-api/routes"
	"github.com/stitchmusic/music-api/internal/auth"
	"github.com/stitchmusic/music-api/internal/common"
	"github.com/stitchmusic/music-api/internal/storage"
	"github.com/stitchmusic/music-api/internal/tracks"
	"github.com/stitchmusic/music-api/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	cfg.Logging.SetupLogging()

	log.Info().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting music API")

	// Initialize database
	db, err := common.NewDatabase(&cfg.Database, &cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize cache; the service runs without it
	var (
		sharedKeys  auth.SharedCache
		cacheHealth routes.Pinger
	)
	if cfg.Redis.Enabled {
		cache, err := common.NewCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without shared cache")
		} else {
			defer cache.Close()
			sharedKeys, cacheHealth = cache, cache
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	storageFactory := storage.NewStorageFactory(&cfg.Storage)
	blobStorage, err := storageFactory.CreateStorage(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// Initialize services
	keySet := auth.NewKeySetCache(&cfg.Auth, sharedKeys)
	keySet.Warm(ctx)
	authService := auth.NewService(keySet, &cfg.Auth)
	trackService := tracks.NewService(db, blobStorage, &cfg.Storage)

	if !authService.TokenAuthEnabled() && !authService.HeaderAuthEnabled() {
		log.Warn().Msg("No authentication configured, protected routes will answer 503")
	}

	// Setup HTTP server
	router := setupRouter(cfg, authService, trackService, blobStorage.Kind(), db, cacheHealth)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Str("storage", string(blobStorage.Kind())).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

func setupRouter(cfg *config.Config, authService *auth.Service, trackService *tracks.Service, backend storage.Kind, db routes.Pinger, cache routes.Pinger) *gin.Engine {
	// Set Gin mode based on log level
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	routes.HealthRoutes(router, &cfg.App, db, cache)

	api := router.Group(cfg.Server.APIPrefix)
	{
		if strings.Trim(cfg.Server.APIPrefix, "/") != "" {
			routes.HealthRoutes(api, &cfg.App, db, cache)
		}
		routes.TrackRoutes(api, trackService, authService)
		routes.UploadRoutes(api, trackService, authService, cfg.Storage.MaxUploadSize)
		routes.MediaRoutes(api, trackService)
		routes.InteractionRoutes(api, trackService, authService)

		// Presigned URLs from the local backend point back at this server
		if backend == storage.KindLocal {
			routes.LocalUploadRoutes(api, trackService, authService, cfg.Storage.MaxUploadSize)
		}
	}

	return router
}
