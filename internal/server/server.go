// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mpwalden/crooner/internal/api"
	"github.com/mpwalden/crooner/internal/config"
	"github.com/mpwalden/crooner/internal/db"
	"github.com/mpwalden/crooner/internal/logger"
	"github.com/mpwalden/crooner/internal/middleware"
	"github.com/mpwalden/crooner/internal/queue"
	"github.com/mpwalden/crooner/internal/session"
	"github.com/mpwalden/crooner/internal/singer"
)

// Server represents the HTTP server
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	sessionService *session.Service
	singerService  *singer.Service
	queueEngine    *queue.Engine
	router         *gin.Engine
	server         *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	sessionService := session.NewService(database, repos)
	singerService := singer.NewService(repos)
	queueEngine := queue.NewEngine(database, repos)

	return &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		sessionService: sessionService,
		singerService:  singerService,
		queueEngine:    queueEngine,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db)
	api.SetupSessionRoutes(apiGroup, s.sessionService)
	api.SetupSingerRoutes(apiGroup, s.singerService)
	api.SetupQueueRoutes(apiGroup, s.queueEngine)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
