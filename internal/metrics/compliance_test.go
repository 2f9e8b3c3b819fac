package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceMetrics(t *testing.T) {
	provider, err := NewProvider("occam_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	cm, err := NewComplianceMetrics(provider.MeterProvider(), "occam_test")
	require.NoError(t, err)

	ctx := context.Background()
	cm.RecordSLO(ctx, "CPU Utilization", 92, false)
	cm.RecordSLO(ctx, "Retrieval Latency", 1850, true)
	cm.RecordDriftCheck(ctx, "critical", "re-verification-triggered")
	cm.RecordDriftCheck(ctx, "critical", "re-verification-triggered")
	cm.RecordChainVerification(ctx, true)

	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	output := w.Body.String()

	assertBizMetricLine(t, output, `occam_test_slo_actual`, `slo="CPU Utilization"`, `92`)
	assertBizMetricLine(t, output, `occam_test_slo_compliant`, `slo="CPU Utilization"`, `0`)
	assertBizMetricLine(t, output, `occam_test_slo_compliant`, `slo="Retrieval Latency"`, `1`)
	assertBizMetricLine(
		t,
		output,
		`occam_test_drift_checks_total`,
		`action="re-verification-triggered".*risk_level="critical"`,
		`2`,
	)
	assertBizMetricLine(t, output, `occam_test_audit_chain_verifications_total`, `valid="true"`, `1`)
}

func TestNoOpComplianceMetrics(t *testing.T) {
	cm := NewNoOpComplianceMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		cm.RecordSLO(ctx, "Build Time", 12, false)
		cm.RecordDriftCheck(ctx, "low", "blocked")
		cm.RecordChainVerification(ctx, false)
	})
}
