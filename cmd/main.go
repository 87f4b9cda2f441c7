// Main entry point for the Cosmic Watch service
package main

import (
	"context"

	"cosmicwatch/internal/auth"
	"cosmicwatch/internal/chat"
	"cosmicwatch/internal/clients"
	"cosmicwatch/internal/config"
	"cosmicwatch/internal/handlers"
	"cosmicwatch/internal/logger"
	"cosmicwatch/internal/repo"
	"cosmicwatch/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFile)
	log.Info("configuration loaded")

	// Initialize database connection pool
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()

	// Initialize database schema
	if err := repo.InitDB(ctx, pool); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database schema initialized")

	// Initialize repositories
	userRepo := repo.NewUserRepo(pool)
	watchlistRepo := repo.NewWatchlistRepo(pool)

	// Initialize clients and services
	neoClient := clients.NewNeoClient(cfg.NasaAPIKey, cfg.NasaFeedURL, cfg.NasaLookupURL,
		logger.WithComponent(log, "neows"))
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpireMinutes)

	neoService := services.NewNeoService(neoClient)
	authService := services.NewAuthService(userRepo, tokens)
	watchlistService := services.NewWatchlistService(watchlistRepo)
	hub := chat.NewHub(logger.WithComponent(log, "chat"))

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Setup routes
	handler := handlers.NewHandler(neoService, authService, watchlistService, hub,
		logger.WithComponent(log, "http"))
	handlers.SetupRoutes(r, handler)

	// Start server
	log.WithField("addr", cfg.ListenAddr).Info("cosmic-watch service listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
