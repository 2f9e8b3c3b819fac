// Package service provides the destinations sealed compliance reports are published to.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/allisson/occam/internal/report/domain"
)

// LogSink writes a summary of each report to the application log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name identifies the sink.
func (s *LogSink) Name() string { return "log" }

// Publish logs the report headline.
func (s *LogSink) Publish(ctx context.Context, report *domain.Report) error {
	s.logger.InfoContext(ctx, "compliance report generated",
		slog.String("report_id", report.ID.String()),
		slog.Time("period_start", report.PeriodStart),
		slog.Time("period_end", report.PeriodEnd),
		slog.Float64("compliance_accuracy", report.Summary.ComplianceAccuracy),
		slog.Bool("chain_valid", report.Summary.ChainValid),
		slog.Bool("slo_compliant", report.SLOCompliance.OverallCompliance),
		slog.Float64("drift_rate", report.DriftAnalysis.DriftRate),
		slog.Int("recommendations", len(report.Recommendations)),
		slog.String("checksum", report.Checksum),
	)
	return nil
}

// BlobSink stores each report as a JSON object in a gocloud.dev bucket.
type BlobSink struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobSink creates a sink writing under prefix in bucket.
func NewBlobSink(bucket *blob.Bucket, prefix string) *BlobSink {
	return &BlobSink{bucket: bucket, prefix: prefix}
}

// OpenBlobSink opens the bucket at url (file://, mem:// or s3://).
func OpenBlobSink(ctx context.Context, url, prefix string) (*BlobSink, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open report bucket: %w", err)
	}
	return NewBlobSink(bucket, prefix), nil
}

// Name identifies the sink.
func (s *BlobSink) Name() string { return "blob" }

// Key returns the object key of report.
func (s *BlobSink) Key(report *domain.Report) string {
	return fmt.Sprintf("%s%s/%s.json", s.prefix, report.PeriodStart.Format("2006-01-02"), report.ID)
}

// Publish writes the report with its checksum as object metadata.
func (s *BlobSink) Publish(ctx context.Context, report *domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	err = s.bucket.WriteAll(ctx, s.Key(report), data, &blob.WriterOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"checksum": report.Checksum},
	})
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Close releases the bucket.
func (s *BlobSink) Close() error {
	return s.bucket.Close()
}

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each report as a JSON message keyed by report id.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a sink producing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.LeastBytes{},
		},
	}
}

// Name identifies the sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Publish produces one message carrying the report and its checksum header.
func (s *KafkaSink) Publish(ctx context.Context, report *domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.ID.String()),
		Value: data,
		Time:  report.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "checksum", Value: []byte(report.Checksum)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
