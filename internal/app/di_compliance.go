package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	driftHTTP "github.com/allisson/occam/internal/drift/http"
	driftRepository "github.com/allisson/occam/internal/drift/repository"
	driftService "github.com/allisson/occam/internal/drift/service"
	driftUseCase "github.com/allisson/occam/internal/drift/usecase"
	reportHTTP "github.com/allisson/occam/internal/report/http"
	reportService "github.com/allisson/occam/internal/report/service"
	reportUseCase "github.com/allisson/occam/internal/report/usecase"
	reverificationHTTP "github.com/allisson/occam/internal/reverification/http"
	reverificationRepository "github.com/allisson/occam/internal/reverification/repository"
	reverificationService "github.com/allisson/occam/internal/reverification/service"
	reverificationUseCase "github.com/allisson/occam/internal/reverification/usecase"
	sloDomain "github.com/allisson/occam/internal/slo/domain"
	sloHTTP "github.com/allisson/occam/internal/slo/http"
	sloService "github.com/allisson/occam/internal/slo/service"
	sloUseCase "github.com/allisson/occam/internal/slo/usecase"
)

// reportBlobPrefix is the key prefix of reports written to REPORT_BLOB_URL.
const reportBlobPrefix = "reports/"

// DriftRepository returns the drift check repository based on database driver.
func (c *Container) DriftRepository() (driftUseCase.CheckRepository, error) {
	var err error
	c.driftRepositoryInit.Do(func() {
		c.driftRepository, err = c.initDriftRepository()
		if err != nil {
			c.initErrors["driftRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["driftRepository"]; exists {
		return nil, storedErr
	}
	return c.driftRepository, nil
}

// DriftUseCase returns the drift detector.
func (c *Container) DriftUseCase() (driftUseCase.UseCase, error) {
	var err error
	c.driftUseCaseInit.Do(func() {
		c.driftUseCase, err = c.initDriftUseCase()
		if err != nil {
			c.initErrors["driftUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["driftUseCase"]; exists {
		return nil, storedErr
	}
	return c.driftUseCase, nil
}

// DriftHandler returns the drift HTTP handler.
func (c *Container) DriftHandler() (*driftHTTP.DriftHandler, error) {
	var err error
	c.driftHandlerInit.Do(func() {
		var useCase driftUseCase.UseCase
		useCase, err = c.DriftUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get drift use case for drift handler: %w", err)
			c.initErrors["driftHandler"] = err
			return
		}
		c.driftHandler = driftHTTP.NewDriftHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["driftHandler"]; exists {
		return nil, storedErr
	}
	return c.driftHandler, nil
}

// JobRepository returns the re-verification job repository based on database driver.
func (c *Container) JobRepository() (reverificationUseCase.JobRepository, error) {
	var err error
	c.jobRepositoryInit.Do(func() {
		c.jobRepository, err = c.initJobRepository()
		if err != nil {
			c.initErrors["jobRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["jobRepository"]; exists {
		return nil, storedErr
	}
	return c.jobRepository, nil
}

// ReverificationUseCase returns the re-verification scheduler.
func (c *Container) ReverificationUseCase() (reverificationUseCase.UseCase, error) {
	var err error
	c.reverificationUseCaseInit.Do(func() {
		c.reverificationUseCase, err = c.initReverificationUseCase()
		if err != nil {
			c.initErrors["reverificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reverificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.reverificationUseCase, nil
}

// ReverificationHandler returns the re-verification HTTP handler.
func (c *Container) ReverificationHandler() (*reverificationHTTP.ReverificationHandler, error) {
	var err error
	c.reverificationHandlerInit.Do(func() {
		var useCase reverificationUseCase.UseCase
		useCase, err = c.ReverificationUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get reverification use case for reverification handler: %w", err)
			c.initErrors["reverificationHandler"] = err
			return
		}
		c.reverificationHandler = reverificationHTTP.NewReverificationHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reverificationHandler"]; exists {
		return nil, storedErr
	}
	return c.reverificationHandler, nil
}

// ScheduledAuditLocker returns the Redis lock when REDIS_URL is set and an
// in-process lock otherwise.
func (c *Container) ScheduledAuditLocker() (reverificationService.Locker, error) {
	var err error
	c.lockerInit.Do(func() {
		c.scheduledAuditLocker, err = c.initScheduledAuditLocker()
		if err != nil {
			c.initErrors["scheduledAuditLocker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduledAuditLocker"]; exists {
		return nil, storedErr
	}
	return c.scheduledAuditLocker, nil
}

// ScheduledAuditScheduler returns the cron scheduler running the scheduled audit.
func (c *Container) ScheduledAuditScheduler() (*reverificationService.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduledAuditScheduler, err = c.initScheduledAuditScheduler()
		if err != nil {
			c.initErrors["scheduledAuditScheduler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduledAuditScheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduledAuditScheduler, nil
}

// BuildTimeGauge returns the gauge fed by PUT /v1/slo/measurements/build_time.
func (c *Container) BuildTimeGauge() *sloService.Gauge {
	c.initGauges()
	return c.buildTimeGauge
}

// CPUGauge returns the gauge fed by PUT /v1/slo/measurements/cpu_utilization.
func (c *Container) CPUGauge() *sloService.Gauge {
	c.initGauges()
	return c.cpuGauge
}

// SLOUseCase returns the SLO monitor.
func (c *Container) SLOUseCase() (sloUseCase.UseCase, error) {
	var err error
	c.sloUseCaseInit.Do(func() {
		c.sloUseCase, err = c.initSLOUseCase()
		if err != nil {
			c.initErrors["sloUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sloUseCase"]; exists {
		return nil, storedErr
	}
	return c.sloUseCase, nil
}

// SLOHandler returns the SLO HTTP handler.
func (c *Container) SLOHandler() (*sloHTTP.SLOHandler, error) {
	var err error
	c.sloHandlerInit.Do(func() {
		var useCase sloUseCase.UseCase
		useCase, err = c.SLOUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get slo use case for slo handler: %w", err)
			c.initErrors["sloHandler"] = err
			return
		}
		c.sloHandler = sloHTTP.NewSLOHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sloHandler"]; exists {
		return nil, storedErr
	}
	return c.sloHandler, nil
}

// ReportSinks returns the report destinations: the log always, a blob bucket
// when REPORT_BLOB_URL is set and Kafka when KAFKA_BROKERS is set.
func (c *Container) ReportSinks() ([]reportUseCase.Sink, error) {
	var err error
	c.reportSinksInit.Do(func() {
		c.reportSinks, err = c.initReportSinks()
		if err != nil {
			c.initErrors["reportSinks"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reportSinks"]; exists {
		return nil, storedErr
	}
	return c.reportSinks, nil
}

// ReportUseCase returns the compliance report generator.
func (c *Container) ReportUseCase() (reportUseCase.UseCase, error) {
	var err error
	c.reportUseCaseInit.Do(func() {
		c.reportUseCase, err = c.initReportUseCase()
		if err != nil {
			c.initErrors["reportUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reportUseCase"]; exists {
		return nil, storedErr
	}
	return c.reportUseCase, nil
}

// ReportHandler returns the report HTTP handler.
func (c *Container) ReportHandler() (*reportHTTP.ReportHandler, error) {
	var err error
	c.reportHandlerInit.Do(func() {
		var useCase reportUseCase.UseCase
		useCase, err = c.ReportUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get report use case for report handler: %w", err)
			c.initErrors["reportHandler"] = err
			return
		}
		c.reportHandler = reportHTTP.NewReportHandler(useCase, c.config.ReportInterval, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["reportHandler"]; exists {
		return nil, storedErr
	}
	return c.reportHandler, nil
}

func (c *Container) initDriftRepository() (driftUseCase.CheckRepository, error) {
	if c.InMemory() {
		return driftRepository.NewMemoryCheckRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for drift repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return driftRepository.NewMySQLCheckRepository(db), nil
	case "postgres":
		return driftRepository.NewPostgreSQLCheckRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initDriftUseCase() (driftUseCase.UseCase, error) {
	repo, err := c.DriftRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get drift repository for drift use case: %w", err)
	}

	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for drift use case: %w", err)
	}

	var trigger driftUseCase.ReverificationTrigger
	if c.config.DriftAutoReverification {
		trigger, err = c.ReverificationUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get reverification use case for drift use case: %w", err)
		}
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for drift use case: %w", err)
	}

	complianceMetrics, err := c.ComplianceMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance metrics for drift use case: %w", err)
	}

	useCase := driftUseCase.NewDriftUseCase(
		driftUseCase.Config{
			Threshold:          c.config.DriftThreshold,
			WarningMargin:      c.config.DriftWarningMargin,
			TrendEpsilon:       c.config.DriftTrendEpsilon,
			MaxCriticalCases:   c.config.DriftMaxCriticalCases,
			AutoReverification: c.config.DriftAutoReverification,
		},
		repo,
		driftService.NewTermFrequencyScorer(),
		trigger,
		audit,
		c.Logger(),
	)
	return driftUseCase.NewDriftUseCaseWithMetrics(useCase, businessMetrics, complianceMetrics), nil
}

func (c *Container) initJobRepository() (reverificationUseCase.JobRepository, error) {
	if c.InMemory() {
		return reverificationRepository.NewMemoryJobRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return reverificationRepository.NewMySQLJobRepository(db), nil
	case "postgres":
		return reverificationRepository.NewPostgreSQLJobRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initReverificationUseCase() (reverificationUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for reverification use case: %w", err)
	}

	repo, err := c.JobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get job repository for reverification use case: %w", err)
	}

	workflows, err := c.WorkflowUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow use case for reverification use case: %w", err)
	}

	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for reverification use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for reverification use case: %w", err)
	}

	useCase := reverificationUseCase.NewReverificationUseCase(
		reverificationUseCase.Config{
			Workers:       c.config.ReverificationWorkers,
			Interval:      c.config.ReverificationInterval,
			BatchSize:     c.config.ReverificationBatchSize,
			RetentionDays: c.config.AuditRetentionDays,
		},
		txManager,
		repo,
		reverificationService.NewWorkflowValidator(workflows, c.config.ReverificationWorkflowID),
		audit,
		c.Logger(),
	)
	return reverificationUseCase.NewReverificationUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initScheduledAuditLocker() (reverificationService.Locker, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for scheduled audit lock: %w", err)
	}
	if client == nil {
		return reverificationService.NewLocalLocker(), nil
	}
	return reverificationService.NewRedisLocker(client), nil
}

func (c *Container) initScheduledAuditScheduler() (*reverificationService.Scheduler, error) {
	locker, err := c.ScheduledAuditLocker()
	if err != nil {
		return nil, fmt.Errorf("failed to get locker for scheduled audit: %w", err)
	}

	useCase, err := c.ReverificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get reverification use case for scheduled audit: %w", err)
	}

	logger := c.Logger()
	run := func(ctx context.Context) error {
		job, err := useCase.RunScheduledAudit(ctx)
		if err != nil {
			return err
		}
		logger.Info("scheduled audit finished",
			slog.String("job_id", job.ID.String()),
			slog.String("status", string(job.Status)),
		)
		return nil
	}

	return reverificationService.NewScheduler(
		c.config.ScheduledAuditCron,
		locker,
		c.config.ScheduledAuditLockTTL,
		run,
		logger,
	)
}

func (c *Container) initGauges() {
	c.gaugesInit.Do(func() {
		c.buildTimeGauge = sloService.NewGauge()
		c.cpuGauge = sloService.NewGauge()
	})
}

func (c *Container) initSLOUseCase() (sloUseCase.UseCase, error) {
	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for slo use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for slo use case: %w", err)
	}

	complianceMetrics, err := c.ComplianceMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance metrics for slo use case: %w", err)
	}

	sources := map[string]sloUseCase.Source{
		sloDomain.KeyRetrievalLatency:   c.LatencyTracker(),
		sloDomain.KeyBuildTime:          c.BuildTimeGauge(),
		sloDomain.KeyComplianceAccuracy: sloService.NewAccuracySource(audit, c.config.ReportInterval),
		sloDomain.KeyAuditVerification:  sloService.NewChainSource(audit),
		sloDomain.KeyCPU:                c.CPUGauge(),
		sloDomain.KeyMemory:             sloService.NewMemorySource(c.config.SLOMemoryLimitBytes),
	}

	useCase := sloUseCase.NewSLOUseCase(
		sloUseCase.Config{
			Targets: sloDomain.Targets{
				RetrievalLatencyMs:    c.config.SLORetrievalLatencyTarget,
				BuildTimeMinutes:      c.config.SLOBuildTimeTarget,
				ComplianceAccuracyPct: c.config.SLOComplianceAccuracyTarget,
				AuditVerificationPct:  c.config.SLOAuditVerificationTarget,
				CPUUtilizationPct:     c.config.SLOCPUTarget,
				MemoryUtilizationPct:  c.config.SLOMemoryTarget,
			},
			TrendEpsilon: c.config.SLOTrendEpsilon,
			Workers:      c.config.SLOCollectorWorkers,
		},
		sources,
		audit,
		c.Logger(),
	)
	return sloUseCase.NewSLOUseCaseWithMetrics(useCase, businessMetrics, complianceMetrics), nil
}

func (c *Container) initReportSinks() ([]reportUseCase.Sink, error) {
	sinks := []reportUseCase.Sink{reportService.NewLogSink(c.Logger())}

	if c.config.ReportBlobURL != "" {
		blobSink, err := reportService.OpenBlobSink(context.Background(), c.config.ReportBlobURL, reportBlobPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open report bucket: %w", err)
		}
		sinks = append(sinks, blobSink)
		c.addCloser(blobSink)
	}

	if brokers := c.config.KafkaBrokerList(); len(brokers) > 0 {
		kafkaSink := reportService.NewKafkaSink(brokers, c.config.KafkaReportTopic)
		sinks = append(sinks, kafkaSink)
		c.addCloser(kafkaSink)
	}

	return sinks, nil
}

func (c *Container) addCloser(closer io.Closer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reportSinkClosers = append(c.reportSinkClosers, closer)
}

func (c *Container) initReportUseCase() (reportUseCase.UseCase, error) {
	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for report use case: %w", err)
	}

	drift, err := c.DriftUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get drift use case for report use case: %w", err)
	}

	slo, err := c.SLOUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get slo use case for report use case: %w", err)
	}

	sinks, err := c.ReportSinks()
	if err != nil {
		return nil, fmt.Errorf("failed to get report sinks for report use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for report use case: %w", err)
	}

	useCase := reportUseCase.NewReportUseCase(
		reportUseCase.Config{
			Interval:       c.config.ReportInterval,
			DriftRateAlert: c.config.ReportDriftRateAlert,
		},
		audit,
		drift,
		slo,
		sinks,
		c.Logger(),
	)
	return reportUseCase.NewReportUseCaseWithMetrics(useCase, businessMetrics), nil
}
