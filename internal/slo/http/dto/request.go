// Package dto provides data transfer objects for the SLO HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"
)

// MeasurementRequest carries an externally reported SLO value.
type MeasurementRequest struct {
	Value *float64 `json:"value"`
}

// Validate checks if the measurement request is valid.
func (r *MeasurementRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value, validation.NotNil, validation.Min(0.0)),
	)
}
