package domain

import (
	"github.com/allisson/occam/internal/errors"
)

// SLO errors.
var (
	// ErrUnknownMetric indicates the metric key is not one of the fixed SLOs.
	ErrUnknownMetric = errors.Wrap(errors.ErrNotFound, "unknown slo metric")

	// ErrMetricNotReportable indicates the metric is measured internally and cannot be set.
	ErrMetricNotReportable = errors.Wrap(errors.ErrInvalidInput, "slo metric is measured internally")

	// ErrInvalidMeasurement indicates a reported value is negative or not a number.
	ErrInvalidMeasurement = errors.Wrap(errors.ErrInvalidInput, "invalid slo measurement")

	// ErrNoMeasurement indicates a source has nothing to report yet.
	ErrNoMeasurement = errors.New("no measurement available")
)
