package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTargets = Targets{
	RetrievalLatencyMs:    2500,
	BuildTimeMinutes:      10,
	ComplianceAccuracyPct: 95,
	AuditVerificationPct:  100,
	CPUUtilizationPct:     80,
	MemoryUtilizationPct:  85,
}

func TestDirection_Compliant(t *testing.T) {
	assert.True(t, LowerIsBetter.Compliant(1850, 2500))
	assert.True(t, LowerIsBetter.Compliant(80, 80))
	assert.False(t, LowerIsBetter.Compliant(92, 80))
	assert.True(t, HigherIsBetter.Compliant(100, 100))
	assert.False(t, HigherIsBetter.Compliant(94.9, 95))
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 6)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"Retrieval Latency",
		"Build Time",
		"Compliance Accuracy",
		"Audit Trace Verification",
		"CPU Utilization",
		"Memory Utilization",
	}, names)

	defs[0].Name = "mutated"
	assert.Equal(t, "Retrieval Latency", Definitions()[0].Name)

	def, ok := DefinitionFor(KeyCPU)
	assert.True(t, ok)
	assert.Equal(t, "%", def.Unit)

	_, ok = DefinitionFor("disk")
	assert.False(t, ok)
}

func TestTargets_For(t *testing.T) {
	assert.Equal(t, 2500.0, testTargets.For(KeyRetrievalLatency))
	assert.Equal(t, 100.0, testTargets.For(KeyAuditVerification))
	assert.Equal(t, 85.0, testTargets.For(KeyMemory))
	assert.Equal(t, 0.0, testTargets.For("unknown"))
}

func TestTrendFor(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		previous  float64
		current   float64
		want      Trend
	}{
		{"lower is better and dropped", LowerIsBetter, 2000, 1850, TrendImproving},
		{"lower is better and rose", LowerIsBetter, 70, 92, TrendDegrading},
		{"higher is better and rose", HigherIsBetter, 90, 97, TrendImproving},
		{"higher is better and dropped", HigherIsBetter, 100, 99, TrendDegrading},
		{"within epsilon", HigherIsBetter, 95, 95.005, TrendStable},
		{"unchanged", LowerIsBetter, 10, 10, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrendFor(tt.direction, tt.previous, tt.current, 0.01))
		})
	}
}

func TestEvaluate(t *testing.T) {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	def, _ := DefinitionFor(KeyRetrievalLatency)

	t.Run("first cycle is stable", func(t *testing.T) {
		m := Evaluate(def, 2500, Measurement{Value: 1850}, nil, 0.01, at)

		assert.True(t, m.Compliant)
		assert.Equal(t, 1850.0, m.Actual)
		assert.Equal(t, TrendStable, m.Trend)
		assert.Equal(t, "ms", m.Unit)
		assert.Equal(t, at, m.LastMeasured)
		assert.Empty(t, m.Error)
	})

	t.Run("trend against previous value", func(t *testing.T) {
		previous := 3000.0
		m := Evaluate(def, 2500, Measurement{Value: 1850}, &previous, 0.01, at)

		assert.Equal(t, TrendImproving, m.Trend)
	})

	t.Run("failed measurement is non-compliant with zero actual", func(t *testing.T) {
		previous := 100.0
		m := Evaluate(def, 2500, Measurement{Value: 12, Err: errors.New("source down")}, &previous, 0.01, at)

		assert.False(t, m.Compliant)
		assert.Equal(t, 0.0, m.Actual)
		assert.Equal(t, "source down", m.Error)
		assert.Equal(t, TrendStable, m.Trend)
	})
}

func TestNewComplianceStatus(t *testing.T) {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	values := map[string]float64{
		KeyRetrievalLatency:   1850,
		KeyBuildTime:          7,
		KeyComplianceAccuracy: 97,
		KeyAuditVerification:  100,
		KeyCPU:                92,
		KeyMemory:             60,
	}

	var metrics []Metric
	for _, def := range Definitions() {
		metrics = append(metrics, Evaluate(def, testTargets.For(def.Key), Measurement{Value: values[def.Key]}, nil, 0.01, at))
	}

	status := NewComplianceStatus(metrics, at)

	assert.False(t, status.OverallCompliance)
	assert.Equal(t, []string{"CPU Utilization"}, status.ViolatedSLOs)
	assert.Equal(t, at, status.EvaluatedAt)

	cpu, ok := status.Metric(KeyCPU)
	require.True(t, ok)
	assert.False(t, cpu.Compliant)

	_, ok = status.Metric("disk")
	assert.False(t, ok)
}

func TestNewComplianceStatus_AllCompliant(t *testing.T) {
	status := NewComplianceStatus([]Metric{
		{Name: "Retrieval Latency", Compliant: true},
		{Name: "Build Time", Compliant: true},
	}, time.Now())

	assert.True(t, status.OverallCompliance)
	assert.NotNil(t, status.ViolatedSLOs)
	assert.Empty(t, status.ViolatedSLOs)
}

func TestNewComplianceStatus_ViolationsKeepOrder(t *testing.T) {
	status := NewComplianceStatus([]Metric{
		{Name: "Retrieval Latency"},
		{Name: "Build Time", Compliant: true},
		{Name: "Memory Utilization"},
	}, time.Now())

	assert.Equal(t, []string{"Retrieval Latency", "Memory Utilization"}, status.ViolatedSLOs)
}
