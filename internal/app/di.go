// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	agentHTTP "github.com/allisson/occam/internal/agent/http"
	agentService "github.com/allisson/occam/internal/agent/service"
	auditHTTP "github.com/allisson/occam/internal/audit/http"
	auditService "github.com/allisson/occam/internal/audit/service"
	auditUseCase "github.com/allisson/occam/internal/audit/usecase"
	"github.com/allisson/occam/internal/config"
	"github.com/allisson/occam/internal/database"
	driftHTTP "github.com/allisson/occam/internal/drift/http"
	driftUseCase "github.com/allisson/occam/internal/drift/usecase"
	"github.com/allisson/occam/internal/http"
	"github.com/allisson/occam/internal/metrics"
	reportHTTP "github.com/allisson/occam/internal/report/http"
	reportUseCase "github.com/allisson/occam/internal/report/usecase"
	reverificationHTTP "github.com/allisson/occam/internal/reverification/http"
	reverificationService "github.com/allisson/occam/internal/reverification/service"
	reverificationUseCase "github.com/allisson/occam/internal/reverification/usecase"
	sloHTTP "github.com/allisson/occam/internal/slo/http"
	sloService "github.com/allisson/occam/internal/slo/service"
	sloUseCase "github.com/allisson/occam/internal/slo/usecase"
	"github.com/allisson/occam/internal/tracing"
	workflowHTTP "github.com/allisson/occam/internal/workflow/http"
	workflowUseCase "github.com/allisson/occam/internal/workflow/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	redisClient *redis.Client

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider   *metrics.Provider
	businessMetrics   metrics.BusinessMetrics
	complianceMetrics metrics.ComplianceMetrics

	// Tracing
	tracingProvider *tracing.Provider

	// Audit
	auditHasher     auditService.Hasher
	auditRepository auditUseCase.RecordRepository
	latencyTracker  *sloService.LatencyTracker
	auditUseCase    auditUseCase.UseCase
	auditHandler    *auditHTTP.AuditHandler

	// Agents and workflows
	agentRegistry   *agentService.Registry
	workflowUseCase workflowUseCase.UseCase
	agentHandler    *agentHTTP.AgentHandler
	workflowHandler *workflowHTTP.WorkflowHandler

	// Compliance: drift, re-verification, SLOs and reports
	driftRepository         driftUseCase.CheckRepository
	driftUseCase            driftUseCase.UseCase
	driftHandler            *driftHTTP.DriftHandler
	jobRepository           reverificationUseCase.JobRepository
	reverificationUseCase   reverificationUseCase.UseCase
	reverificationHandler   *reverificationHTTP.ReverificationHandler
	scheduledAuditLocker    reverificationService.Locker
	scheduledAuditScheduler *reverificationService.Scheduler
	buildTimeGauge          *sloService.Gauge
	cpuGauge                *sloService.Gauge
	sloUseCase              sloUseCase.UseCase
	sloHandler              *sloHTTP.SLOHandler
	reportSinks             []reportUseCase.Sink
	reportUseCase           reportUseCase.UseCase
	reportHandler           *reportHTTP.ReportHandler
	reportSinkClosers       []io.Closer

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	redisClientInit           sync.Once
	txManagerInit             sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	complianceMetricsInit     sync.Once
	tracingProviderInit       sync.Once
	auditHasherInit           sync.Once
	auditRepositoryInit       sync.Once
	latencyTrackerInit        sync.Once
	auditUseCaseInit          sync.Once
	auditHandlerInit          sync.Once
	agentRegistryInit         sync.Once
	workflowUseCaseInit       sync.Once
	agentHandlerInit          sync.Once
	workflowHandlerInit       sync.Once
	driftRepositoryInit       sync.Once
	driftUseCaseInit          sync.Once
	driftHandlerInit          sync.Once
	jobRepositoryInit         sync.Once
	reverificationUseCaseInit sync.Once
	reverificationHandlerInit sync.Once
	lockerInit                sync.Once
	schedulerInit             sync.Once
	gaugesInit                sync.Once
	sloUseCaseInit            sync.Once
	sloHandlerInit            sync.Once
	reportSinksInit           sync.Once
	reportUseCaseInit         sync.Once
	reportHandlerInit         sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// InMemory reports whether the container uses the in-process storage driver.
func (c *Container) InMemory() bool {
	return c.config.DBDriver == "" || c.config.DBDriver == "memory"
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager. The memory driver gets a
// manager that runs functions without a transaction.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// RedisClient returns the Redis client, or nil when REDIS_URL is empty.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// TracingProvider returns the tracer provider workflow spans are recorded with.
func (c *Container) TracingProvider() (*tracing.Provider, error) {
	var err error
	c.tracingProviderInit.Do(func() {
		c.tracingProvider, err = c.initTracingProvider()
		if err != nil {
			c.initErrors["tracingProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tracingProvider"]; exists {
		return nil, storedErr
	}
	return c.tracingProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// ComplianceMetrics returns the compliance gauges and counters recorder.
func (c *Container) ComplianceMetrics() (metrics.ComplianceMetrics, error) {
	var err error
	c.complianceMetricsInit.Do(func() {
		c.complianceMetrics, err = c.initComplianceMetrics()
		if err != nil {
			c.initErrors["complianceMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["complianceMetrics"]; exists {
		return nil, storedErr
	}
	return c.complianceMetrics, nil
}

// HTTPServer returns the HTTP server instance with every route mounted.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.tracingProvider != nil {
		if err := c.tracingProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("tracing provider shutdown: %w", err))
		}
	}

	for _, closer := range c.reportSinkClosers {
		if err := closer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("report sink close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	if c.InMemory() {
		return nil, fmt.Errorf("database is not available with the memory driver")
	}

	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	if c.InMemory() {
		return database.NewNopTxManager(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initRedisClient parses REDIS_URL into a client.
func (c *Container) initRedisClient() (*redis.Client, error) {
	if c.config.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initTracingProvider() (*tracing.Provider, error) {
	provider, err := tracing.NewProvider(context.Background(), tracing.Config{
		ServiceName:  c.config.MetricsNamespace,
		Exporter:     c.config.TracingExporter,
		OTLPEndpoint: c.config.TracingOTLPEndpoint,
		OTLPInsecure: c.config.TracingOTLPInsecure,
		SampleRate:   c.config.TracingSampleRate,
		BatchTimeout: c.config.TracingBatchTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing provider: %w", err)
	}

	c.Logger().Debug("tracing configured",
		slog.String("exporter", c.config.TracingExporter),
		slog.Float64("sample_rate", c.config.TracingSampleRate),
	)
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

func (c *Container) initComplianceMetrics() (metrics.ComplianceMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for compliance metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpComplianceMetrics(), nil
	}

	complianceMetrics, err := metrics.NewComplianceMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create compliance metrics: %w", err)
	}
	return complianceMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	var db *sql.DB
	if !c.InMemory() {
		var err error
		db, err = c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for http server: %w", err)
		}
	}

	handlers, err := c.handlers()
	if err != nil {
		return nil, err
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	if provider != nil {
		server.SetupRouter(c.config, handlers, provider.MeterProvider(), c.config.MetricsNamespace)
	} else {
		server.SetupRouter(c.config, handlers, nil, c.config.MetricsNamespace)
	}

	return server, nil
}

// handlers resolves every domain handler mounted by the HTTP server.
func (c *Container) handlers() (http.Handlers, error) {
	var (
		handlers http.Handlers
		err      error
	)

	if handlers.Audit, err = c.AuditHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get audit handler: %w", err)
	}
	if handlers.Agent, err = c.AgentHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get agent handler: %w", err)
	}
	if handlers.Workflow, err = c.WorkflowHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get workflow handler: %w", err)
	}
	if handlers.Drift, err = c.DriftHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get drift handler: %w", err)
	}
	if handlers.Reverification, err = c.ReverificationHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get reverification handler: %w", err)
	}
	if handlers.SLO, err = c.SLOHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get slo handler: %w", err)
	}
	if handlers.Report, err = c.ReportHandler(); err != nil {
		return handlers, fmt.Errorf("failed to get report handler: %w", err)
	}
	return handlers, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
