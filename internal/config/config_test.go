package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "memory", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5, cfg.DBMaxIdleConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "occam", cfg.MetricsNamespace)
				assert.Equal(t, "none", cfg.TracingExporter)
				assert.Equal(t, "localhost:4317", cfg.TracingOTLPEndpoint)
				assert.Equal(t, 1.0, cfg.TracingSampleRate)
				assert.Equal(t, 5*time.Second, cfg.TracingBatchTimeout)
				assert.Equal(t, 365, cfg.AuditRetentionDays)
				assert.Equal(t, 30*time.Second, cfg.WorkflowStepTimeout)
				assert.Equal(t, 0.85, cfg.DriftThreshold)
				assert.True(t, cfg.DriftAutoReverification)
				assert.Equal(t, 4, cfg.ReverificationWorkers)
				assert.Equal(t, "0 2 * * 0", cfg.ScheduledAuditCron)
				assert.Equal(t, 2500.0, cfg.SLORetrievalLatencyTarget)
				assert.Equal(t, 10.0, cfg.SLOBuildTimeTarget)
				assert.Equal(t, 95.0, cfg.SLOComplianceAccuracyTarget)
				assert.Equal(t, 100.0, cfg.SLOAuditVerificationTarget)
				assert.Equal(t, 80.0, cfg.SLOCPUTarget)
				assert.Equal(t, 85.0, cfg.SLOMemoryTarget)
				assert.Equal(t, int64(1<<30), cfg.SLOMemoryLimitBytes)
				assert.Equal(t, 7*24*time.Hour, cfg.ReportInterval)
				assert.Empty(t, cfg.KafkaBrokerList())
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/occam",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/occam", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom drift configuration",
			envVars: map[string]string{
				"DRIFT_THRESHOLD":           "0.9",
				"DRIFT_WARNING_MARGIN":      "0.02",
				"DRIFT_AUTO_REVERIFICATION": "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.9, cfg.DriftThreshold)
				assert.Equal(t, 0.02, cfg.DriftWarningMargin)
				assert.False(t, cfg.DriftAutoReverification)
			},
		},
		{
			name: "load tracing configuration",
			envVars: map[string]string{
				"TRACING_EXPORTER":      "otlp",
				"TRACING_OTLP_ENDPOINT": "collector:4317",
				"TRACING_OTLP_INSECURE": "true",
				"TRACING_SAMPLE_RATE":   "0.25",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "otlp", cfg.TracingExporter)
				assert.Equal(t, "collector:4317", cfg.TracingOTLPEndpoint)
				assert.True(t, cfg.TracingOTLPInsecure)
				assert.Equal(t, 0.25, cfg.TracingSampleRate)
			},
		},
		{
			name: "load kafka brokers",
			envVars: map[string]string{
				"KAFKA_BROKERS": "kafka-1:9092, kafka-2:9092,,",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			// Load configuration
			cfg := Load()

			// Validate
			tt.validate(t, cfg)
		})
	}
}

func TestGetGinMode(t *testing.T) {
	for level, want := range map[string]string{
		"debug": "debug",
		"info":  "release",
		"warn":  "release",
		"error": "release",
		"other": "release",
	} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.GetGinMode(), level)
	}
}
