/*
errors.go - Error types for the award engine

PURPOSE:
  All error types in one place. Callers branch with errors.Is on the
  sentinels and errors.As on the structured types, which carry context.

ERROR CATEGORIES:
  1. Fatal for a shift - no effective rate, unknown classification,
     malformed shift. The shift gets no breakdown; batch calls continue.
  2. Configuration - rejected when a RateTable or Engine is built.
  3. Assessment - fatigue input spanning more than one employee.

  Data-quality issues are not errors. They travel as DataQualityWarning
  values on the result.

SEE ALSO:
  - ratetable.go: Returns ConfigError and RateNotFoundError
  - engine.go: Wraps per-shift failures
*/
package award

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRateNotFound is returned when no AwardRate is effective on the shift date.
	ErrRateNotFound = errors.New("no effective award rate")

	// ErrUnknownClassification is returned when a classification is missing
	// from the loaded rate table.
	ErrUnknownClassification = errors.New("unknown classification")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidShift  = errors.New("invalid shift")

	// ErrMixedEmployees is returned when a fatigue assessment is given shifts
	// of more than one employee.
	ErrMixedEmployees = errors.New("shifts belong to more than one employee")

	ErrInvalidEmploymentType = errors.New("invalid employment type")

	// ErrNegativeQuantity is returned for negative hours or rates.
	ErrNegativeQuantity = errors.New("negative quantity")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RateNotFoundError names the classification and date that had no rate.
type RateNotFoundError struct {
	ShiftID        string
	Classification Classification
	Date           Date
}

func (e *RateNotFoundError) Error() string {
	msg := fmt.Sprintf("no award rate effective for classification %q on %s", e.Classification, e.Date)
	if e.ShiftID != "" {
		msg = fmt.Sprintf("shift %s: %s", e.ShiftID, msg)
	}
	return msg
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

type UnknownClassificationError struct {
	EmployeeID     string
	Classification Classification
}

func (e *UnknownClassificationError) Error() string {
	if e.Classification == "" {
		return fmt.Sprintf("employee %s has no classification", e.EmployeeID)
	}
	if e.EmployeeID == "" {
		return fmt.Sprintf("unknown classification %q", e.Classification)
	}
	return fmt.Sprintf("employee %s: unknown classification %q", e.EmployeeID, e.Classification)
}

func (e *UnknownClassificationError) Unwrap() error { return ErrUnknownClassification }

// ConfigError points at the offending configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErr(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type InvalidShiftError struct {
	ShiftID string
	Reason  string
}

func (e *InvalidShiftError) Error() string {
	if e.ShiftID == "" {
		return "invalid shift: " + e.Reason
	}
	return fmt.Sprintf("invalid shift %s: %s", e.ShiftID, e.Reason)
}

func (e *InvalidShiftError) Unwrap() error { return ErrInvalidShift }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error was caused by the caller's input
// rather than by the engine.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrMixedEmployees) ||
		errors.Is(err, ErrInvalidEmploymentType) ||
		errors.Is(err, ErrNegativeQuantity) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsUnprocessable returns true for well-formed input the loaded rate table
// cannot price.
func IsUnprocessable(err error) bool {
	return errors.Is(err, ErrRateNotFound) || errors.Is(err, ErrUnknownClassification)
}

// ErrorReason maps an error to a short stable label for logs and metrics.
func ErrorReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateNotFound):
		return "rate_not_found"
	case errors.Is(err, ErrUnknownClassification):
		return "unknown_classification"
	case errors.Is(err, ErrInvalidShift):
		return "invalid_shift"
	case errors.Is(err, ErrMixedEmployees):
		return "mixed_employees"
	default:
		return "other"
	}
}
