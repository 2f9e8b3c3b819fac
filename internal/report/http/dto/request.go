// Package dto provides data transfer objects for the report HTTP API.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"
)

// GenerateReportRequest selects the report period. Missing bounds default to
// the period ending now.
type GenerateReportRequest struct {
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

// Validate checks if the generate report request is valid.
func (r *GenerateReportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PeriodEnd, validation.By(func(value interface{}) error {
			if r.PeriodStart == nil || r.PeriodEnd == nil {
				return nil
			}
			if !r.PeriodEnd.After(*r.PeriodStart) {
				return validation.NewError("validation_period_order", "must be after period_start")
			}
			return nil
		})),
	)
}

// Period resolves the request bounds. A missing end is now; a missing start is
// end minus defaultPeriod.
func (r *GenerateReportRequest) Period(now time.Time, defaultPeriod time.Duration) (time.Time, time.Time) {
	end := now.UTC()
	if r.PeriodEnd != nil {
		end = r.PeriodEnd.UTC()
	}
	start := end.Add(-defaultPeriod)
	if r.PeriodStart != nil {
		start = r.PeriodStart.UTC()
	}
	return start, end
}
