package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/api/handlers"
	appMiddleware "github.com/africacodeacademy-erp2025/gazette-ingest/internal/api/middlewares"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/config"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, gazettes *services.GazetteService, users *services.UserService) *Server {
	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret)
	gazetteHandler := handlers.NewGazetteHandler(gazettes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Get("/health", gazetteHandler.Health)
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Get("/gazettes", gazetteHandler.List)
		api.Get("/gazettes/{id}", gazetteHandler.Get)
		api.Post("/gazettes/search", gazetteHandler.Search)

		// admin endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Post("/gazettes/upload", gazetteHandler.Upload)
			protected.Get("/gazettes/{id}/chunks", gazetteHandler.Chunks)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
