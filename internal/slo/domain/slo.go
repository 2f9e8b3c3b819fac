// Package domain defines service level objectives and how a measurement is
// judged against its target.
package domain

import (
	"math"
	"time"
)

// Direction tells whether lower or higher values are better.
type Direction string

const (
	LowerIsBetter  Direction = "lower"
	HigherIsBetter Direction = "higher"
)

// Compliant reports whether actual meets target in this direction.
func (d Direction) Compliant(actual, target float64) bool {
	if d == HigherIsBetter {
		return actual >= target
	}
	return actual <= target
}

// Trend compares a measurement with the previous one.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// Metric keys, used to address a metric in measurement updates.
const (
	KeyRetrievalLatency   = "retrieval_latency"
	KeyBuildTime          = "build_time"
	KeyComplianceAccuracy = "compliance_accuracy"
	KeyAuditVerification  = "audit_verification"
	KeyCPU                = "cpu_utilization"
	KeyMemory             = "memory_utilization"
)

// Definition describes one of the fixed SLOs.
type Definition struct {
	Key       string
	Name      string
	Unit      string
	Direction Direction
}

var definitions = []Definition{
	{Key: KeyRetrievalLatency, Name: "Retrieval Latency", Unit: "ms", Direction: LowerIsBetter},
	{Key: KeyBuildTime, Name: "Build Time", Unit: "min", Direction: LowerIsBetter},
	{Key: KeyComplianceAccuracy, Name: "Compliance Accuracy", Unit: "%", Direction: HigherIsBetter},
	{Key: KeyAuditVerification, Name: "Audit Trace Verification", Unit: "%", Direction: HigherIsBetter},
	{Key: KeyCPU, Name: "CPU Utilization", Unit: "%", Direction: LowerIsBetter},
	{Key: KeyMemory, Name: "Memory Utilization", Unit: "%", Direction: LowerIsBetter},
}

// Definitions returns the six SLOs in evaluation order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// DefinitionFor returns the definition with the given key.
func DefinitionFor(key string) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Targets holds the target of each SLO.
type Targets struct {
	RetrievalLatencyMs    float64
	BuildTimeMinutes      float64
	ComplianceAccuracyPct float64
	AuditVerificationPct  float64
	CPUUtilizationPct     float64
	MemoryUtilizationPct  float64
}

// For returns the target of the metric with the given key.
func (t Targets) For(key string) float64 {
	switch key {
	case KeyRetrievalLatency:
		return t.RetrievalLatencyMs
	case KeyBuildTime:
		return t.BuildTimeMinutes
	case KeyComplianceAccuracy:
		return t.ComplianceAccuracyPct
	case KeyAuditVerification:
		return t.AuditVerificationPct
	case KeyCPU:
		return t.CPUUtilizationPct
	case KeyMemory:
		return t.MemoryUtilizationPct
	default:
		return 0
	}
}

// Metric is one evaluated SLO. Error is set when the measurement could not be collected.
type Metric struct {
	Key          string
	Name         string
	Target       float64
	Actual       float64
	Unit         string
	Direction    Direction
	Compliant    bool
	Trend        Trend
	LastMeasured time.Time
	Error        string
}

// Measurement is the outcome of collecting one metric.
type Measurement struct {
	Value float64
	Err   error
}

// Evaluate judges a measurement against its target. A failed measurement is
// non-compliant with an actual of 0. previous is nil on the first cycle.
func Evaluate(
	def Definition,
	target float64,
	m Measurement,
	previous *float64,
	epsilon float64,
	at time.Time,
) Metric {
	metric := Metric{
		Key:          def.Key,
		Name:         def.Name,
		Target:       target,
		Unit:         def.Unit,
		Direction:    def.Direction,
		Trend:        TrendStable,
		LastMeasured: at,
	}
	if m.Err != nil {
		metric.Error = m.Err.Error()
		return metric
	}

	metric.Actual = m.Value
	metric.Compliant = def.Direction.Compliant(m.Value, target)
	if previous != nil {
		metric.Trend = TrendFor(def.Direction, *previous, m.Value, epsilon)
	}
	return metric
}

// TrendFor compares current with previous. Changes within epsilon are stable.
func TrendFor(direction Direction, previous, current, epsilon float64) Trend {
	delta := current - previous
	if math.Abs(delta) <= epsilon {
		return TrendStable
	}
	if (delta < 0) == (direction == LowerIsBetter) {
		return TrendImproving
	}
	return TrendDegrading
}

// ComplianceStatus is the outcome of one monitoring cycle.
type ComplianceStatus struct {
	Metrics           []Metric
	OverallCompliance bool
	ViolatedSLOs      []string
	EvaluatedAt       time.Time
}

// NewComplianceStatus aggregates metrics, keeping their order.
func NewComplianceStatus(metrics []Metric, evaluatedAt time.Time) *ComplianceStatus {
	status := &ComplianceStatus{
		Metrics:           metrics,
		OverallCompliance: true,
		ViolatedSLOs:      make([]string, 0),
		EvaluatedAt:       evaluatedAt,
	}
	for _, m := range metrics {
		if !m.Compliant {
			status.OverallCompliance = false
			status.ViolatedSLOs = append(status.ViolatedSLOs, m.Name)
		}
	}
	return status
}

// Metric returns the metric with the given key.
func (s *ComplianceStatus) Metric(key string) (Metric, bool) {
	for _, m := range s.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}
