package usecase

import (
	"context"

	"github.com/allisson/occam/internal/audit/domain"
	apperrors "github.com/allisson/occam/internal/errors"
)

// DefaultPageSize is the page size used by ReadAll when none is given.
const DefaultPageSize = 500

// TrailReader reads pages of the audit trail.
type TrailReader interface {
	GetAuditTrail(ctx context.Context, query domain.Query) ([]*domain.Record, error)
}

// ReadAll pages through every record matching query in chronological order.
// The query's Offset and Limit are ignored.
func ReadAll(ctx context.Context, reader TrailReader, query domain.Query, pageSize int) ([]*domain.Record, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	records := make([]*domain.Record, 0)
	for offset := 0; ; offset += pageSize {
		query.Offset = offset
		query.Limit = pageSize

		page, err := reader.GetAuditTrail(ctx, query)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read audit trail")
		}
		records = append(records, page...)

		if len(page) < pageSize {
			return records, nil
		}
	}
}
