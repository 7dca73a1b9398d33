package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/interfaces/http/handlers"
	"github.com/turtacn/tokenforge/internal/interfaces/http/middleware"
	"github.com/turtacn/tokenforge/pkg/logger"
)

// Router assembles the HTTP surface and owns the server lifecycle.
type Router struct {
	engine         *gin.Engine
	config         *config.Config
	logger         logger.Logger
	healthHandler  *handlers.HealthHandler
	tokenHandler   *handlers.TokenHandler
	authMiddleware gin.HandlerFunc
	server         *http.Server
}

// NewRouter creates the router with its handlers.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	tokenHandler *handlers.TokenHandler,
	authMiddleware gin.HandlerFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:         gin.New(),
		config:         cfg,
		logger:         log.WithComponent("http"),
		healthHandler:  healthHandler,
		tokenHandler:   tokenHandler,
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes registers middleware and all endpoints.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.engine.GET("/health/live", r.healthHandler.Liveness)
	r.engine.GET("/health/ready", r.healthHandler.Readiness)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	{
		tokens := v1.Group("/tokens")
		{
			tokens.POST("", r.tokenHandler.Issue)
			tokens.POST("/verify", r.tokenHandler.Verify)
			tokens.POST("/refresh", r.tokenHandler.Refresh)
			tokens.POST("/revoke", r.tokenHandler.Revoke)
			tokens.POST("/introspect", r.tokenHandler.Introspect)
		}
		admin := v1.Group("/admin/tokens")
		admin.Use(r.authMiddleware)
		{
			admin.POST("/search", r.tokenHandler.Search)
			admin.POST("/stats", r.tokenHandler.Stats)
			admin.POST("/cleanup", r.tokenHandler.Cleanup)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start begins serving. It blocks until the server stops.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the underlying gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
