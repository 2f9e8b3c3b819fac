package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ComplianceMetrics exposes the state of the compliance core as Prometheus series:
// the latest SLO measurements, drift check outcomes and audit chain verifications.
type ComplianceMetrics interface {
	// RecordSLO stores the latest measured value of an SLO and whether it met its target.
	RecordSLO(ctx context.Context, name string, actual float64, compliant bool)

	// RecordDriftCheck counts a drift check by risk level and action taken.
	RecordDriftCheck(ctx context.Context, riskLevel, action string)

	// RecordChainVerification counts an audit chain verification by outcome.
	RecordChainVerification(ctx context.Context, valid bool)
}

type complianceMetrics struct {
	sloActual         metric.Float64Gauge
	sloCompliant      metric.Int64Gauge
	driftChecks       metric.Int64Counter
	chainVerification metric.Int64Counter
}

// NewComplianceMetrics creates a ComplianceMetrics implementation backed by OpenTelemetry instruments.
func NewComplianceMetrics(meterProvider metric.MeterProvider, namespace string) (ComplianceMetrics, error) {
	meter := meterProvider.Meter(namespace)

	sloActual, err := meter.Float64Gauge(
		fmt.Sprintf("%s_slo_actual", namespace),
		metric.WithDescription("Latest measured value of a service level objective"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slo actual gauge: %w", err)
	}

	sloCompliant, err := meter.Int64Gauge(
		fmt.Sprintf("%s_slo_compliant", namespace),
		metric.WithDescription("1 when the latest measurement met its target, 0 otherwise"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slo compliant gauge: %w", err)
	}

	driftChecks, err := meter.Int64Counter(
		fmt.Sprintf("%s_drift_checks_total", namespace),
		metric.WithDescription("Total number of drift checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drift check counter: %w", err)
	}

	chainVerification, err := meter.Int64Counter(
		fmt.Sprintf("%s_audit_chain_verifications_total", namespace),
		metric.WithDescription("Total number of audit chain verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain verification counter: %w", err)
	}

	return &complianceMetrics{
		sloActual:         sloActual,
		sloCompliant:      sloCompliant,
		driftChecks:       driftChecks,
		chainVerification: chainVerification,
	}, nil
}

func (m *complianceMetrics) RecordSLO(ctx context.Context, name string, actual float64, compliant bool) {
	attrs := metric.WithAttributes(attribute.String("slo", name))
	m.sloActual.Record(ctx, actual, attrs)

	var v int64
	if compliant {
		v = 1
	}
	m.sloCompliant.Record(ctx, v, attrs)
}

func (m *complianceMetrics) RecordDriftCheck(ctx context.Context, riskLevel, action string) {
	m.driftChecks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("risk_level", riskLevel),
			attribute.String("action", action),
		),
	)
}

func (m *complianceMetrics) RecordChainVerification(ctx context.Context, valid bool) {
	m.chainVerification.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

// NoOpComplianceMetrics is used when metrics are disabled.
type NoOpComplianceMetrics struct{}

// NewNoOpComplianceMetrics creates a no-op ComplianceMetrics implementation.
func NewNoOpComplianceMetrics() ComplianceMetrics {
	return &NoOpComplianceMetrics{}
}

func (n *NoOpComplianceMetrics) RecordSLO(ctx context.Context, name string, actual float64, compliant bool) {
}

func (n *NoOpComplianceMetrics) RecordDriftCheck(ctx context.Context, riskLevel, action string) {}

func (n *NoOpComplianceMetrics) RecordChainVerification(ctx context.Context, valid bool) {}
