package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/occam/internal/report/domain"
	reportUseCase "github.com/allisson/occam/internal/report/usecase"
)

// RunGenerateReport generates, seals and publishes a compliance report for
// [start, end). An empty start is end minus period; an empty end is now.
func RunGenerateReport(
	ctx context.Context,
	reportUseCase reportUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	period time.Duration,
	format string,
) error {
	end := time.Now().UTC()
	if endDate != "" {
		parsed, err := parseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		end = parsed
	}

	start := end.Add(-period)
	if startDate != "" {
		parsed, err := parseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		start = parsed
	}

	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("generating compliance report",
		slog.Time("period_start", start),
		slog.Time("period_end", end),
	)

	report, err := reportUseCase.Generate(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, report)
	}
	outputReportText(writer, report)
	return nil
}

func outputReportText(writer io.Writer, report *domain.Report) {
	_, _ = fmt.Fprintf(writer, "Compliance Report %s\n", report.ID)
	_, _ = fmt.Fprintf(writer, "==========================================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Period:               %s to %s\n",
		report.PeriodStart.Format("2006-01-02 15:04:05"),
		report.PeriodEnd.Format("2006-01-02 15:04:05"),
	)
	_, _ = fmt.Fprintf(writer, "Documents:            %d (%d verified, %d failed)\n",
		report.Summary.TotalDocuments, report.Summary.VerifiedDocuments, report.Summary.FailedDocuments)
	_, _ = fmt.Fprintf(writer, "Compliance Accuracy:  %.2f%%\n", report.Summary.ComplianceAccuracy)
	_, _ = fmt.Fprintf(writer, "Audit Chain Valid:    %t (%d records)\n",
		report.Summary.ChainValid, report.Summary.ChainRecordsChecked)
	_, _ = fmt.Fprintf(writer, "Drift Rate:           %.2f%% (%s)\n",
		report.DriftAnalysis.DriftRate*100, report.DriftAnalysis.Trend)
	_, _ = fmt.Fprintf(writer, "SLO Compliance:       %t\n", report.SLOCompliance.OverallCompliance)
	_, _ = fmt.Fprintf(writer, "Next Scheduled Audit: %s\n", report.NextScheduledAudit.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(writer, "Checksum:             %s\n", report.Checksum)

	if len(report.Recommendations) > 0 {
		_, _ = fmt.Fprintf(writer, "\nRecommendations:\n")
		for _, rec := range report.Recommendations {
			_, _ = fmt.Fprintf(writer, "  - [%s] %s\n", rec.Priority, rec.Message)
		}
	}
}
