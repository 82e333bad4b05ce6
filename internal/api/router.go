package api

import (
	"time"

	"github.com/avelez/clipvault-be/internal/api/handlers"
	"github.com/avelez/clipvault-be/internal/auth"
	"github.com/avelez/clipvault-be/internal/config"
	"github.com/avelez/clipvault-be/internal/services"
	ws "github.com/avelez/clipvault-be/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	tokens *auth.Manager,
	hub *ws.Hub,
	userService services.UserServiceProvider,
	videoService services.VideoServiceProvider,
	eventService services.EventServiceProvider,
	stats handlers.SnapshotProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Overall request deadline; uploads get long enough to finish streaming.
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, eventService, tokens, cfg.RoleEnabled)
	videoHandler := handlers.NewVideoHandler(videoService, eventService, hub, cfg.MaxUploadBytes)
	eventHandler := handlers.NewEventHandler(eventService)
	statsHandler := handlers.NewStatsHandler(stats)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireAuth := tokens.Middleware()

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/dashboard", userHandler.Dashboard)
		r.Post("/upload", videoHandler.Upload)
		r.Get("/events", eventHandler.GetRecent)
		r.Get("/stats", statsHandler.Get)
	})

	// Reads are public by default; the flag puts them behind the gate instead.
	r.Group(func(r chi.Router) {
		if !cfg.PublicVideoReads {
			r.Use(requireAuth)
		}
		r.Get("/videos", videoHandler.GetAll)
		r.Get("/video/{id}", videoHandler.Stream)
	})

	r.Get("/ws", wsHandler.Serve)

	return r
}
