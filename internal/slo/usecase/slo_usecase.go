package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	auditDomain "github.com/allisson/occam/internal/audit/domain"
	apperrors "github.com/allisson/occam/internal/errors"
	"github.com/allisson/occam/internal/slo/domain"
)

// Config holds the SLO targets and collection settings.
type Config struct {
	Targets      domain.Targets
	TrendEpsilon float64
	Workers      int
}

type sloUseCase struct {
	config  Config
	sources map[string]Source
	audit   AuditRecorder
	logger  *slog.Logger
	clock   func() time.Time

	// mu guards previous, the last successful value of each metric.
	mu       sync.Mutex
	previous map[string]float64
}

// NewSLOUseCase creates the SLO monitor. sources is keyed by metric key; a
// metric without a source is reported as non-compliant.
func NewSLOUseCase(
	config Config,
	sources map[string]Source,
	audit AuditRecorder,
	logger *slog.Logger,
) UseCase {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &sloUseCase{
		config:   config,
		sources:  sources,
		audit:    audit,
		logger:   logger,
		clock:    time.Now,
		previous: make(map[string]float64),
	}
}

func (s *sloUseCase) Evaluate(ctx context.Context) (*domain.ComplianceStatus, error) {
	defs := domain.Definitions()
	measurements := s.collect(ctx, defs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	metrics := make([]domain.Metric, len(defs))

	s.mu.Lock()
	for i, def := range defs {
		var previous *float64
		if v, ok := s.previous[def.Key]; ok {
			previous = &v
		}
		metrics[i] = domain.Evaluate(
			def, s.config.Targets.For(def.Key), measurements[i], previous, s.config.TrendEpsilon, now,
		)
		if measurements[i].Err == nil {
			s.previous[def.Key] = measurements[i].Value
		}
	}
	s.mu.Unlock()

	status := domain.NewComplianceStatus(metrics, now)
	s.recordCycle(ctx, status)
	return status, nil
}

// collect measures every metric on a bounded pool. Results keep the order of defs.
func (s *sloUseCase) collect(ctx context.Context, defs []domain.Definition) []domain.Measurement {
	measurements := make([]domain.Measurement, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, def := range defs {
		source, ok := s.sources[def.Key]
		if !ok {
			measurements[i] = domain.Measurement{Err: fmt.Errorf("no source configured for %s", def.Key)}
			continue
		}
		g.Go(func() error {
			value, err := source.Measure(gctx)
			if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
				err = fmt.Errorf("source returned %v", value)
			}
			measurements[i] = domain.Measurement{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range measurements {
		if m.Err != nil && s.logger != nil {
			s.logger.Warn("slo measurement failed",
				slog.String("metric", defs[i].Key),
				slog.Any("error", m.Err),
			)
		}
	}
	return measurements
}

// recordCycle appends the cycle outcome to the audit trail. A failed append
// is logged; the status is still returned.
func (s *sloUseCase) recordCycle(ctx context.Context, status *domain.ComplianceStatus) {
	severity := auditDomain.SeverityInfo
	details := "all slos compliant"
	if !status.OverallCompliance {
		severity = auditDomain.SeverityWarning
		details = "violated slos: " + strings.Join(status.ViolatedSLOs, ", ")
	}

	actuals := make(map[string]any, len(status.Metrics))
	for _, m := range status.Metrics {
		actuals[m.Key] = m.Actual
	}

	_, err := s.audit.RecordEvent(ctx, &auditDomain.Event{
		EventType: auditDomain.EventTypeComplianceCheck,
		Severity:  severity,
		Action:    "slo.evaluate",
		Details:   details,
		Metadata: map[string]any{
			"violated_slos": status.ViolatedSLOs,
			"actuals":       actuals,
		},
		Success: status.OverallCompliance,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("failed to record slo evaluation", slog.Any("error", err))
	}
}

func (s *sloUseCase) RecordMeasurement(ctx context.Context, key string, value float64) error {
	if _, ok := domain.DefinitionFor(key); !ok {
		return apperrors.Wrap(domain.ErrUnknownMetric, key)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return apperrors.Wrapf(domain.ErrInvalidMeasurement, "%s: %v", key, value)
	}

	source, ok := s.sources[key].(ReportableSource)
	if !ok {
		return apperrors.Wrap(domain.ErrMetricNotReportable, key)
	}
	source.Set(value, s.clock().UTC())
	return nil
}
