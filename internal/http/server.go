// Package http provides the HTTP server, router setup, and middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/allisson/marketplace/internal/metrics"
	notificationHTTP "github.com/allisson/marketplace/internal/notification/http"
	realtimeDomain "github.com/allisson/marketplace/internal/realtime/domain"
	realtimeHTTP "github.com/allisson/marketplace/internal/realtime/http"
	"github.com/allisson/marketplace/internal/realtime/service"
)

// Server represents the HTTP server
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// RouterConfig holds the handlers and middleware settings for route setup.
type RouterConfig struct {
	TokenVerifier       service.TokenVerifier
	RealtimeHandler     *realtimeHTTP.Handler
	NotificationHandler *notificationHTTP.NotificationHandler

	MeterProvider    metric.MeterProvider
	MetricsNamespace string

	CORSEnabled      bool
	CORSAllowOrigins string

	HandshakeRateLimitEnabled bool
	HandshakeRequestsPerSec   float64
	HandshakeBurst            int
}

// NewServer creates a new HTTP server
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the router with all application routes and middleware
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// WebSocket handshake authenticates via token inside the handler; the
	// write timeout on s.server does not apply to hijacked connections.
	wsHandlers := []gin.HandlerFunc{}
	if cfg.HandshakeRateLimitEnabled {
		wsHandlers = append(wsHandlers,
			realtimeHTTP.HandshakeRateLimitMiddleware(cfg.HandshakeRequestsPerSec, cfg.HandshakeBurst, s.logger))
	}
	wsHandlers = append(wsHandlers, cfg.RealtimeHandler.Serve)
	router.GET("/ws", wsHandlers...)

	v1 := router.Group("/v1")
	v1.Use(realtimeHTTP.AuthenticationMiddleware(cfg.TokenVerifier, s.logger))
	{
		v1.POST("/events",
			realtimeHTTP.RequireRoles(s.logger, realtimeDomain.RoleAdmin),
			cfg.NotificationHandler.CreateEventHandler)
		v1.GET("/notifications", cfg.NotificationHandler.ListHandler)
		v1.POST("/notifications/:id/read", cfg.NotificationHandler.MarkReadHandler)
		v1.POST("/subscriptions", cfg.NotificationHandler.SubscribeHandler)
		v1.DELETE("/subscriptions/:id", cfg.NotificationHandler.UnsubscribeHandler)
	}

	s.router = router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can take traffic
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
