package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codechat/internal/config"
	"codechat/internal/handler"
	"codechat/pkg/logger"
)

// Server is the HTTP front of the service.
type Server interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// NewServer creates the HTTP server.
func NewServer(
	conversationHandler *handler.ConversationHandler,
	patternHandler *handler.PatternHandler,
	indexHandler *handler.IndexHandler,
	cfg *config.ConfigServer,
	logger logger.Logger,
) Server {
	return &server{
		conversationHandler: conversationHandler,
		patternHandler:      patternHandler,
		indexHandler:        indexHandler,
		cfg:                 cfg,
		logger:              logger,
	}
}

type server struct {
	engine              *gin.Engine
	conversationHandler *handler.ConversationHandler
	patternHandler      *handler.PatternHandler
	indexHandler        *handler.IndexHandler
	cfg                 *config.ConfigServer
	logger              logger.Logger
	httpServer          *http.Server
}

func (s *server) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)

	s.engine = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	// WriteTimeout stays zero so SSE responses can run as long as a
	// model turn takes.
	s.httpServer = &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info("starting HTTP server on %s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *server) setupMiddleware() {
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(RequestIDMiddleware())
	s.engine.Use(LoggingMiddleware(s.logger))
	s.engine.Use(CORSMiddleware())
	s.engine.Use(SecurityMiddleware())
	s.engine.Use(MetricsMiddleware())

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"code":    0,
			"message": "ok",
			"success": true,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *server) setupRoutes() {
	api := s.engine.Group("/api/v1")
	{
		api.POST("/conversations", RateLimitMiddleware(s.logger), s.conversationHandler.CreateConversation)
		api.GET("/conversations", RateLimitMiddleware(s.logger), s.conversationHandler.ListConversations)
		api.GET("/conversations/:id/messages", RateLimitMiddleware(s.logger), s.conversationHandler.GetMessages)
		api.POST("/conversations/:id/messages", RateLimitMiddleware(s.logger), s.conversationHandler.SendMessage)

		api.POST("/patterns/analyze", RateLimitMiddleware(s.logger), s.patternHandler.AnalyzeCode)
		api.POST("/patterns/suggest", RateLimitMiddleware(s.logger), s.patternHandler.SuggestPatterns)
		api.POST("/patterns/usage", RateLimitMiddleware(s.logger), s.patternHandler.RecordUsage)

		api.POST("/index", RateLimitMiddleware(s.logger), s.indexHandler.TriggerIndex)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "endpoint not found",
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"success": false,
			"message": "method not allowed",
		})
	})
}
