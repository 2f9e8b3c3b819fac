package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditUseCase "github.com/allisson/occam/internal/audit/usecase"
)

// RunCleanAuditTrail purges audit records older than the specified number of
// days. The chain tip is always kept. Supports dry-run mode and text/JSON output.
func RunCleanAuditTrail(
	ctx context.Context,
	auditUseCase auditUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning audit trail",
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	count, err := auditUseCase.DeleteOlderThan(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to delete audit records: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]interface{}{
			"count":   count,
			"days":    days,
			"dry_run": dryRun,
		}); err != nil {
			return err
		}
	} else {
		outputCleanText(writer, count, days, dryRun)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	return nil
}

func outputCleanText(writer io.Writer, count int64, days int, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d audit record(s) older than %d day(s)\n", count, days)
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d audit record(s) older than %d day(s)\n", count, days)
	}
}
