package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/occam/internal/audit/domain"
	auditUseCase "github.com/allisson/occam/internal/audit/usecase"
)

// RunVerifyAuditChain walks the audit hash chain between two record hashes and
// reports the first broken link. Empty hashes select the first retained record
// and the tip. Returns an error when the chain does not verify so the process
// exits non-zero.
func RunVerifyAuditChain(
	ctx context.Context,
	auditUseCase auditUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	startHash, endHash string,
	format string,
) error {
	logger.Info("verifying audit chain",
		slog.String("start_hash", startHash),
		slog.String("end_hash", endHash),
	)

	result, err := auditUseCase.VerifyAuditChainDetailed(ctx, startHash, endHash)
	if err != nil {
		return fmt.Errorf("failed to verify audit chain: %w", err)
	}

	if format == "json" {
		if err := outputVerifyJSON(writer, result); err != nil {
			return err
		}
	} else {
		outputVerifyText(writer, result)
	}

	logger.Info("verification completed",
		slog.Bool("valid", result.Valid),
		slog.Int64("checked", result.Checked),
		slog.Int64("total", result.Total),
	)

	if !result.Valid {
		return fmt.Errorf("integrity check failed at sequence %d: %s", result.FailedSequence, result.Reason)
	}

	return nil
}

func outputVerifyText(writer io.Writer, result *domain.VerificationResult) {
	_, _ = fmt.Fprintf(writer, "Audit Chain Verification\n")
	_, _ = fmt.Fprintf(writer, "========================\n\n")
	_, _ = fmt.Fprintf(writer, "Records Checked:  %d of %d\n", result.Checked, result.Total)
	_, _ = fmt.Fprintf(writer, "Verified:         %.2f%%\n\n", result.VerifiedPercent())

	switch {
	case !result.Valid:
		_, _ = fmt.Fprintf(writer, "WARNING: chain broken at sequence %d (record %s)\n", result.FailedSequence, result.FailedRecordID)
		_, _ = fmt.Fprintf(writer, "Reason: %s\n", result.Reason)
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED ❌\n")
	case result.Total == 0:
		_, _ = fmt.Fprintf(writer, "Status: Audit trail is empty\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED ✓\n")
	}
}

func outputVerifyJSON(writer io.Writer, result *domain.VerificationResult) error {
	output := map[string]interface{}{
		"valid":            result.Valid,
		"checked":          result.Checked,
		"total":            result.Total,
		"verified_percent": result.VerifiedPercent(),
	}
	if !result.Valid {
		output["failed_sequence"] = result.FailedSequence
		output["failed_record_id"] = result.FailedRecordID
		output["reason"] = result.Reason
	}
	return writeJSON(writer, output)
}
