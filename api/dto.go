/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Inputs reuse the
  factory documents (plain strings for dates and clock times) so the API,
  the CLI files and the stored rate documents share one schema. Outputs
  are the award result types, which already carry JSON tags.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers
  - *DTO: Stored records returned to clients

TYPES:
  Pay:        PayShiftRequest, PayShiftResponse, PayWeeklyRequest, PayWeeklyResponse
  Fatigue:    FatigueRequest
  Super:      SuperRequest, SuperResponse
  Leave:      LeaveRequest, LeaveResponse
  Audit:      AuditRequest
  Rates:      RatesResponse
  Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/roster.go: EmployeeDoc, ShiftDoc, HolidayDoc
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
)

// =============================================================================
// PAY
// =============================================================================

// PayShiftRequest prices a single shift. Holidays are added to the stored
// calendar for this calculation only.
type PayShiftRequest struct {
	Employee factory.EmployeeDoc  `json:"employee"`
	Shift    factory.ShiftDoc     `json:"shift"`
	Holidays []factory.HolidayDoc `json:"holidays,omitempty"`
}

type PayShiftResponse struct {
	Breakdown            award.ShiftPayBreakdown `json:"breakdown"`
	OrdinaryTimeEarnings award.Money             `json:"ordinary_time_earnings"`
	Super                award.Money             `json:"super"`
	LeaveAccruedHours    decimal.Decimal         `json:"leave_accrued_hours"`
	RateTableVersion     int64                   `json:"rate_table_version,omitempty"`
}

// PayWeeklyRequest prices one employee's shifts and applies the pay-period
// overtime threshold across them.
type PayWeeklyRequest struct {
	Employee factory.EmployeeDoc  `json:"employee"`
	Shifts   []factory.ShiftDoc   `json:"shifts"`
	Holidays []factory.HolidayDoc `json:"holidays,omitempty"`
}

type PayWeeklyResponse struct {
	Results []award.ShiftPayResult     `json:"results"`
	Weekly  award.WeeklyOvertimeResult `json:"weekly"`
	// Total is every priced shift plus the period adjustments.
	Total  award.Money `json:"total"`
	Failed int         `json:"failed"`
}

// =============================================================================
// FATIGUE, SUPER, LEAVE
// =============================================================================

// FatigueRequest assesses the given shifts, or the employee's stored
// shifts when Shifts is empty.
type FatigueRequest struct {
	EmployeeID string             `json:"employee_id,omitempty"`
	Shifts     []factory.ShiftDoc `json:"shifts,omitempty"`
}

// SuperRequest computes the guarantee on ordinary time earnings. RatePct
// defaults to the configured rate.
type SuperRequest struct {
	OrdinaryEarnings award.Money    `json:"ordinary_earnings"`
	RatePct          factory.Number `json:"rate_pct,omitempty"`
}

type SuperResponse struct {
	OrdinaryEarnings award.Money     `json:"ordinary_earnings"`
	RatePct          decimal.Decimal `json:"rate_pct"`
	Super            award.Money     `json:"super"`
}

// LeaveRequest computes leave accrued for hours worked. RatePerHour
// defaults to the configured accrual rate.
type LeaveRequest struct {
	HoursWorked    factory.Number `json:"hours_worked"`
	RatePerHour    factory.Number `json:"rate_per_hour,omitempty"`
	EmploymentType string         `json:"employment_type"`
}

type LeaveResponse struct {
	HoursWorked    decimal.Decimal      `json:"hours_worked"`
	RatePerHour    decimal.Decimal      `json:"rate_per_hour"`
	EmploymentType award.EmploymentType `json:"employment_type"`
	AccruedHours   decimal.Decimal      `json:"accrued_hours"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditRequest audits inline organisation data without persisting it.
type AuditRequest = factory.RosterDocument

// RunAuditRequest audits stored data for an optional date range.
type RunAuditRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// =============================================================================
// COLLABORATOR RECORDS
// =============================================================================

type RatesResponse struct {
	Version  int64                      `json:"version"`
	Document factory.RateConfigDocument `json:"document"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // "pay" or "compliance"
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}
