package ui

import (
	"ideascope/internal"
	"ideascope/internal/api"
	"ideascope/internal/research"
	"ideascope/ports"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP surface of the research engine. All endpoints are JSON
// except the SSE stream.
type Server struct {
	router    *gin.Engine
	scheduler *research.Scheduler
	sessions  ports.SessionRepository
	research  ports.ResearchRepository
	hub       *api.ProgressHub
	logger    *internal.Logger
}

// NewServer creates a web server wired to the research engine.
func NewServer(scheduler *research.Scheduler, sessions ports.SessionRepository, researchRepo ports.ResearchRepository, hub *api.ProgressHub) *Server {
	s := &Server{
		router:    gin.Default(),
		scheduler: scheduler,
		sessions:  sessions,
		research:  researchRepo,
		hub:       hub,
		logger:    internal.NewDefaultLogger(),
	}
	s.setupRoutes()
	return s
}

// Router exposes the gin engine, mainly for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	apiGroup := s.router.Group("/api/research")
	{
		apiGroup.GET("/approaches", s.handleApproaches)
		apiGroup.POST("/sessions", s.handleInitiateResearch)
		apiGroup.GET("/sessions", s.handleListSessions)
		apiGroup.GET("/sessions/:id", s.handleGetSession)
		apiGroup.POST("/sessions/:id/execute", s.handleExecuteResearch)
		apiGroup.GET("/sessions/:id/progress", s.handleSessionProgress)
		apiGroup.GET("/sessions/:id/results", s.handleSessionResults)
		apiGroup.GET("/tasks/:id", s.handleTaskStatus)
		apiGroup.POST("/tasks/:id/cancel", s.handleCancelTask)
	}

	s.router.GET("/api/events", s.handleEvents)
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting IdeaScope API on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
