package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	auditUsecase "github.com/allisson/occam/internal/audit/usecase"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/report/domain"
)

// Config holds report generator configuration.
type Config struct {
	// Interval is the time between scheduled reports.
	Interval time.Duration
	// DriftRateAlert is the drift rate above which a report recommends review.
	DriftRateAlert float64
}

type reportUseCase struct {
	config     Config
	audit      AuditTrail
	drift      DriftAnalyzer
	slo        SLOEvaluator
	sinks      []Sink
	logger     *slog.Logger
	clock      func() time.Time
	generateID func() uuid.UUID
}

// NewReportUseCase creates the report generator. Reports are handed to every
// sink in order.
func NewReportUseCase(
	config Config,
	audit AuditTrail,
	drift DriftAnalyzer,
	slo SLOEvaluator,
	sinks []Sink,
	logger *slog.Logger,
) UseCase {
	if config.Interval <= 0 {
		config.Interval = 7 * 24 * time.Hour
	}
	return &reportUseCase{
		config: config,
		audit:  audit,
		drift:  drift,
		slo:    slo,
		sinks:  sinks,
		logger: logger,
		clock:  time.Now,
		generateID: func() uuid.UUID {
			return uuid.Must(uuid.NewV7())
		},
	}
}

func (r *reportUseCase) Generate(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return nil, domain.ErrInvalidPeriod
	}
	began := r.clock()

	records, err := auditUsecase.ReadAll(ctx, r.audit, auditDomain.Query{
		StartTime:  &start,
		EndTime:    &end,
		EventTypes: []auditDomain.EventType{auditDomain.EventTypeValidation},
	}, 0)
	if err != nil {
		return nil, err
	}

	chain, err := r.audit.VerifyAuditChainDetailed(ctx, "", "")
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to verify audit chain")
	}

	analysis, err := r.drift.Analyze(ctx, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to analyze drift")
	}

	status, err := r.slo.Evaluate(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to evaluate slos")
	}

	report := domain.Build(domain.Inputs{
		PeriodStart:       start,
		PeriodEnd:         end,
		ValidationRecords: records,
		Chain:             chain,
		Drift:             analysis,
		SLO:               status,
	}, domain.Options{DriftRateAlert: r.config.DriftRateAlert})

	if err := domain.Seal(report, r.generateID(), r.clock(), r.config.Interval); err != nil {
		return nil, apperrors.Wrap(err, "failed to seal report")
	}

	failed := r.publish(ctx, report)
	r.recordGeneration(ctx, report, failed, r.clock().Sub(began))
	return report, nil
}

// publish hands the report to every sink and returns the names of the sinks that failed.
func (r *reportUseCase) publish(ctx context.Context, report *domain.Report) []string {
	failed := make([]string, 0)
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, report); err != nil {
			failed = append(failed, sink.Name())
			if r.logger != nil {
				r.logger.Error("failed to publish report",
					slog.String("report_id", report.ID.String()),
					slog.String("sink", sink.Name()),
					slog.Any("error", err),
				)
			}
		}
	}
	return failed
}

func (r *reportUseCase) recordGeneration(
	ctx context.Context,
	report *domain.Report,
	failedSinks []string,
	elapsed time.Duration,
) {
	severity := auditDomain.SeverityInfo
	if !report.Summary.ChainValid || !report.SLOCompliance.OverallCompliance || len(report.Recommendations) > 0 {
		severity = auditDomain.SeverityWarning
	}
	if len(failedSinks) > 0 {
		severity = auditDomain.SeverityError
	}

	event := &auditDomain.Event{
		EventType: auditDomain.EventTypeComplianceCheck,
		Severity:  severity,
		Action:    "report.generate",
		Details: fmt.Sprintf("compliance accuracy %.2f%% over %d documents, %d recommendations",
			report.Summary.ComplianceAccuracy, report.Summary.TotalDocuments, len(report.Recommendations)),
		Metadata: map[string]any{
			"report_id":    report.ID.String(),
			"checksum":     report.Checksum,
			"period_start": report.PeriodStart.Format(time.RFC3339),
			"period_end":   report.PeriodEnd.Format(time.RFC3339),
			"failed_sinks": failedSinks,
		},
		Success:   len(failedSinks) == 0,
		LatencyMs: elapsed.Milliseconds(),
	}
	if len(failedSinks) > 0 {
		event.ErrorMessage = fmt.Sprintf("%d of %d sinks failed", len(failedSinks), len(r.sinks))
	}

	if _, err := r.audit.RecordEvent(ctx, event); err != nil && r.logger != nil {
		r.logger.Error("failed to record report generation",
			slog.String("report_id", report.ID.String()),
			slog.Any("error", err),
		)
	}
}

// Schedule generates a report for the elapsed interval on every tick until ctx is done.
func Schedule(ctx context.Context, generator UseCase, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("starting report scheduler", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping report scheduler")
			return ctx.Err()
		case tick := <-ticker.C:
			if _, err := generator.Generate(ctx, tick.Add(-interval), tick); err != nil {
				logger.Error("failed to generate scheduled report", slog.Any("error", err))
			}
		}
	}
}
