package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"reolink-sync/config"
	"reolink-sync/database"
	"reolink-sync/engine"
)

// Server exposes the HTTP API: camera sensor records, media browsing,
// recording history and manual refresh.
type Server struct {
	router *gin.Engine
	cfg    config.Config
	engine *engine.Engine
	db     database.Database
}

// NewServer creates a configured API server. db may be nil when history is
// disabled.
func NewServer(cfg config.Config, eng *engine.Engine, db database.Database) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		cfg:    cfg,
		engine: eng,
		db:     db,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/cameras", s.handleCameras)
		api.GET("/media", s.handleMediaRoot)
		api.GET("/media/:identifier", s.handleMediaItem)
		api.GET("/history", s.handleHistory)
		api.POST("/refresh", s.handleRefresh)
	}

	// Raw asset files are also reachable directly.
	s.router.Static("/recordings", s.cfg.RecordingsDir())
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server on the configured port.
func (s *Server) Start() error {
	addr := ":" + s.cfg.ServerPort
	log.Printf("Starting API server on %s", addr)
	return s.router.Run(addr)
}
