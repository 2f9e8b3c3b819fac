package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/occam/internal/reverification/domain"
	reverificationUseCase "github.com/allisson/occam/internal/reverification/usecase"
)

// RunScheduledAudit runs the scheduled audit once: every document seen in the
// audit retention window is re-verified. Returns an error when any unit fails.
func RunScheduledAudit(
	ctx context.Context,
	reverificationUseCase reverificationUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("running scheduled audit")

	job, err := reverificationUseCase.RunScheduledAudit(ctx)
	if err != nil {
		return fmt.Errorf("failed to run scheduled audit: %w", err)
	}
	job = job.Snapshot()

	if format == "json" {
		if err := outputJobJSON(writer, job); err != nil {
			return err
		}
	} else {
		outputJobText(writer, job)
	}

	logger.Info("scheduled audit completed",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(job.Status)),
		slog.Int("completed", job.Progress.Completed),
		slog.Int("failed", job.Progress.Failed),
	)

	if job.Status == domain.StatusFailed {
		return fmt.Errorf("scheduled audit job %s failed: %s", job.ID, job.Error)
	}
	if job.Progress.Failed > 0 {
		return fmt.Errorf("scheduled audit found %d document(s) failing re-verification", job.Progress.Failed)
	}
	return nil
}

func outputJobText(writer io.Writer, job *domain.Job) {
	_, _ = fmt.Fprintf(writer, "Scheduled Audit\n")
	_, _ = fmt.Fprintf(writer, "===============\n\n")
	_, _ = fmt.Fprintf(writer, "Job ID:     %s\n", job.ID)
	_, _ = fmt.Fprintf(writer, "Status:     %s\n", job.Status)
	_, _ = fmt.Fprintf(writer, "Documents:  %d\n", job.Progress.Total)
	_, _ = fmt.Fprintf(writer, "Completed:  %d\n", job.Progress.Completed)
	_, _ = fmt.Fprintf(writer, "Failed:     %d\n", job.Progress.Failed)

	if job.Progress.Failed > 0 {
		_, _ = fmt.Fprintf(writer, "\nFailed Documents:\n")
		for _, result := range job.Results {
			if !result.Success {
				_, _ = fmt.Fprintf(writer, "  - %s: %s\n", result.DocumentID, result.Error)
			}
		}
	}
}

func outputJobJSON(writer io.Writer, job *domain.Job) error {
	failed := make([]map[string]string, 0)
	for _, result := range job.Results {
		if !result.Success {
			failed = append(failed, map[string]string{
				"document_id":  result.DocumentID,
				"execution_id": result.ExecutionID,
				"error":        result.Error,
			})
		}
	}

	return writeJSON(writer, map[string]interface{}{
		"job_id":           job.ID,
		"status":           job.Status,
		"total":            job.Progress.Total,
		"completed":        job.Progress.Completed,
		"failed":           job.Progress.Failed,
		"failed_documents": failed,
		"error":            job.Error,
	})
}
