// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/occam/internal/errors"
)

var (
	// identifierRegex matches workflow, step, agent and metric identifiers.
	identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Identifier validates that a string is a usable identifier (letters, digits, '.', '_', ':', '-').
var Identifier = validation.NewStringRuleWithError(
	func(s string) bool {
		return identifierRegex.MatchString(s)
	},
	validation.NewError("validation_identifier", "must start with a letter or digit and contain only letters, digits, '.', '_', ':' or '-'"),
)

// UnitInterval validates that a float64 lies in [0, 1].
var UnitInterval = validation.By(func(value interface{}) error {
	f, ok := value.(float64)
	if !ok {
		return validation.NewError("validation_unit_interval_type", "must be a number")
	}
	if f < 0 || f > 1 {
		return validation.NewError("validation_unit_interval", "must be between 0 and 1")
	}
	return nil
})

// Duration validates that a string is empty or a positive Go duration (e.g. "30s").
var Duration = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_duration_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return validation.NewError("validation_duration", "must be a positive duration such as 30s or 2m")
	}
	return nil
})
