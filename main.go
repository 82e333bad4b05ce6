package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelez/clipvault-be/internal/api"
	"github.com/avelez/clipvault-be/internal/auth"
	"github.com/avelez/clipvault-be/internal/config"
	"github.com/avelez/clipvault-be/internal/database"
	"github.com/avelez/clipvault-be/internal/logger"
	"github.com/avelez/clipvault-be/internal/monitoring"
	"github.com/avelez/clipvault-be/internal/services"
	"github.com/avelez/clipvault-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Ensure the upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	videoService := services.NewVideoService(db, cfg.UploadDir, cfg.MaxUploadBytes)
	eventService := services.NewEventService(db)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	// Set up and run the background storage stat updater
	statUpdater := monitoring.NewStatUpdater(videoService, eventService, cfg.UploadDir)
	go statUpdater.Run()

	// Set up and run the orphaned-upload janitor
	janitor, err := monitoring.NewJanitor(videoService, eventService, cfg.UploadDir, cfg.JanitorSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize janitor")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(cfg, tokens, hub, userService, videoService, eventService, statUpdater)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
