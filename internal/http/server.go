// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	agentHTTP "github.com/allisson/occam/internal/agent/http"
	auditHTTP "github.com/allisson/occam/internal/audit/http"
	"github.com/allisson/occam/internal/config"
	driftHTTP "github.com/allisson/occam/internal/drift/http"
	"github.com/allisson/occam/internal/metrics"
	reportHTTP "github.com/allisson/occam/internal/report/http"
	reverificationHTTP "github.com/allisson/occam/internal/reverification/http"
	sloHTTP "github.com/allisson/occam/internal/slo/http"
	workflowHTTP "github.com/allisson/occam/internal/workflow/http"
)

// Handlers groups the domain handlers mounted under /v1.
type Handlers struct {
	Audit          *auditHTTP.AuditHandler
	Agent          *agentHTTP.AgentHandler
	Workflow       *workflowHTTP.WorkflowHandler
	Drift          *driftHTTP.DriftHandler
	Reverification *reverificationHTTP.ReverificationHandler
	SLO            *sloHTTP.SLOHandler
	Report         *reportHTTP.ReportHandler
}

// Server represents the HTTP server.
type Server struct {
	db       *sql.DB
	inMemory bool
	server   *http.Server
	router   *gin.Engine
	logger   *slog.Logger
}

// NewServer creates a new HTTP server. A nil db is only ready when the
// router is configured for the memory driver.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter configures the Gin router with middleware and every route.
func (s *Server) SetupRouter(
	cfg *config.Config,
	handlers Handlers,
	meterProvider metric.MeterProvider,
	metricsNamespace string,
) {
	s.inMemory = cfg.DBDriver == "memory" || cfg.DBDriver == ""

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(meterProvider, metricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	if h := handlers.Audit; h != nil {
		auditTrail := v1.Group("/audit-trail")
		auditTrail.GET("", h.ListHandler)
		auditTrail.GET("/verify", h.VerifyHandler)
	}

	if h := handlers.Agent; h != nil {
		v1.GET("/agents", h.ListHandler)
	}

	if h := handlers.Workflow; h != nil {
		workflows := v1.Group("/workflows")
		workflows.GET("", h.ListHandler)
		workflows.POST("", h.RegisterHandler)
		workflows.POST("/:id/executions", h.ExecuteHandler)
	}

	if h := handlers.Drift; h != nil {
		drift := v1.Group("/drift")
		drift.POST("/checks", h.EvaluateHandler)
		drift.GET("/analysis", h.AnalysisHandler)
	}

	if h := handlers.Reverification; h != nil {
		jobs := v1.Group("/reverification/jobs")
		jobs.POST("", h.ScheduleHandler)
		jobs.GET("/:id", h.GetHandler)
	}

	if h := handlers.SLO; h != nil {
		slo := v1.Group("/slo")
		slo.GET("/status", h.StatusHandler)
		slo.PUT("/measurements/:metric", h.MeasurementHandler)
	}

	if h := handlers.Report; h != nil {
		v1.POST("/reports", h.GenerateHandler)
	}

	s.router = router
}

// Router returns the configured router, nil before SetupRouter.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	return listenAndServe(s.server, "http server", s.logger)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the storage backend is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.inMemory {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"components": gin.H{"database": "memory"},
		})
		return
	}

	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
