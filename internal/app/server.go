package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ilkecodes/sdr-agent-system/internal/api/handlers"
	appMiddleware "github.com/ilkecodes/sdr-agent-system/internal/api/middlewares"
	"github.com/ilkecodes/sdr-agent-system/internal/config"
	"github.com/ilkecodes/sdr-agent-system/internal/core"
	db "github.com/ilkecodes/sdr-agent-system/internal/core/database"
	"github.com/ilkecodes/sdr-agent-system/internal/core/objectstore"
	"github.com/ilkecodes/sdr-agent-system/internal/core/pipeline"
	"github.com/ilkecodes/sdr-agent-system/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dbc db.DbClient, obj objectstore.ObjectClient, ing *pipeline.DocumentIngestor, emb core.EmbeddingProvider, llm core.LLMProvider) *Server {
	userService := services.NewUserService(dbc)
	docService := services.NewDocumentService(dbc, obj, cfg.BucketName)

	authHandler := handlers.NewAuthHandler(userService)
	docHandler := handlers.NewDocumentHandler(docService, ing)
	queryHandler := handlers.NewQueryHandler(dbc, emb, llm)

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
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)
			protected.Post("/documents/upload", docHandler.UploadDocument)
			protected.Get("/documents", docHandler.GetDocuments)
			protected.Get("/documents/{id}", docHandler.GetDocument)
			protected.Post("/query", queryHandler.QueryDocument)
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
