/*
types.go - Core value types for the award engine

PURPOSE:
  Defines the vocabulary shared by every calculator in the package:
  money, classifications, day types, employees, shifts and breaks.

MONEY:
  Money is an integer count of cents. Every monetary result the engine
  produces is a Money, so totals reconcile exactly. Intermediate maths
  (rates, multipliers, fractional hours) runs on decimal.Decimal and is
  rounded to cents once per component.

  JSON renders Money as a decimal string ("123.45") so clients never see
  float artifacts.

SEE ALSO:
  - time.go: Date, ClockTime, TimeWindow, HolidayCalendar
  - ratetable.go: AwardRate, PenaltyRule, AllowanceRate
  - breakdown.go: ShiftPayBreakdown
*/
package award

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// =============================================================================
// MONEY
// =============================================================================

// Money is an amount in cents.
type Money int64

// MoneyFromDecimal rounds a dollar amount half away from zero to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

// ParseMoney parses a dollar string such as "12.30".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }
func (m Money) String() string           { return m.Decimal().StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// centsFromMinuteNumerator converts a dollars-times-minutes numerator into
// cents. This is the single rounding point for pay components.
func centsFromMinuteNumerator(n decimal.Decimal) Money {
	return Money(n.Mul(hundred).Div(sixty).Round(0).IntPart())
}

// =============================================================================
// CLASSIFICATIONS AND DAY TYPES
// =============================================================================

// Classification is an award classification level, e.g. "FB_GRADE_2".
type Classification string

// DayType drives penalty selection.
type DayType string

const (
	DayWeekday       DayType = "WEEKDAY"
	DaySaturday      DayType = "SATURDAY"
	DaySunday        DayType = "SUNDAY"
	DayPublicHoliday DayType = "PUBLIC_HOLIDAY"
	// DayAny only appears on rules. The resolver never produces it.
	DayAny DayType = "ANY"
)

func (d DayType) Valid() bool {
	switch d {
	case DayWeekday, DaySaturday, DaySunday, DayPublicHoliday, DayAny:
		return true
	}
	return false
}

// matches reports whether a rule restricted to d applies to a segment of
// type actual. An empty restriction matches everything.
func (d DayType) matches(actual DayType) bool {
	return d == "" || d == DayAny || d == actual
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmploymentType string

const (
	FullTime EmploymentType = "FULL_TIME"
	PartTime EmploymentType = "PART_TIME"
	Casual   EmploymentType = "CASUAL"
)

func (e EmploymentType) Valid() bool {
	return e == FullTime || e == PartTime || e == Casual
}

// EmployeeProfile is the engine's read-only view of a staff member.
type EmployeeProfile struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Classification Classification `json:"classification"`
	EmploymentType EmploymentType `json:"employment_type"`
	SuperFundName  string         `json:"super_fund_name,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
}

func (e EmployeeProfile) HasTag(tag string) bool { return hasTag(e.Tags, tag) }

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// =============================================================================
// SHIFTS AND BREAKS
// =============================================================================

type BreakEventType string

const (
	BreakStart BreakEventType = "BREAK_START"
	BreakEnd   BreakEventType = "BREAK_END"
)

type BreakType string

const (
	MealUnpaid BreakType = "MEAL_UNPAID"
	RestPaid   BreakType = "REST_PAID"
)

// BreakEvent is a single clock-in/out style break marker within a shift.
type BreakEvent struct {
	EventType BreakEventType `json:"event_type"`
	EventTime ClockTime      `json:"event_time"`
	BreakType BreakType      `json:"break_type"`
}

// RosterShift is a worked shift. EndTime earlier than StartTime means the
// shift finishes on the following day.
type RosterShift struct {
	ID         string       `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Date       Date         `json:"date"`
	StartTime  ClockTime    `json:"start_time"`
	EndTime    ClockTime    `json:"end_time"`
	Breaks     []BreakEvent `json:"breaks,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
}

// Validate checks the structural fields a calculation depends on.
func (s RosterShift) Validate() error {
	switch {
	case s.ID == "":
		return &InvalidShiftError{Reason: "missing shift id"}
	case s.Date.IsZero():
		return &InvalidShiftError{ShiftID: s.ID, Reason: "missing date"}
	case !s.StartTime.Valid():
		return &InvalidShiftError{ShiftID: s.ID, Reason: fmt.Sprintf("start time %d out of range", int(s.StartTime))}
	case !s.EndTime.Valid():
		return &InvalidShiftError{ShiftID: s.ID, Reason: fmt.Sprintf("end time %d out of range", int(s.EndTime))}
	}
	for i, b := range s.Breaks {
		if b.EventType != BreakStart && b.EventType != BreakEnd {
			return &InvalidShiftError{ShiftID: s.ID, Reason: fmt.Sprintf("break %d: unknown event type %q", i, b.EventType)}
		}
		if b.BreakType != MealUnpaid && b.BreakType != RestPaid {
			return &InvalidShiftError{ShiftID: s.ID, Reason: fmt.Sprintf("break %d: unknown break type %q", i, b.BreakType)}
		}
		if !b.EventTime.Valid() {
			return &InvalidShiftError{ShiftID: s.ID, Reason: fmt.Sprintf("break %d: time out of range", i)}
		}
	}
	return nil
}

// HasTag reports whether the shift carries the given tag.
func (s RosterShift) HasTag(tag string) bool { return hasTag(s.Tags, tag) }

// =============================================================================
// DATA QUALITY
// =============================================================================

type WarningCode string

const (
	WarnZeroLengthShift     WarningCode = "ZERO_LENGTH_SHIFT"
	WarnUnmatchedBreakStart WarningCode = "UNMATCHED_BREAK_START"
	WarnUnmatchedBreakEnd   WarningCode = "UNMATCHED_BREAK_END"
	WarnNestedBreakStart    WarningCode = "NESTED_BREAK_START"
	WarnBreakOutsideShift   WarningCode = "BREAK_OUTSIDE_SHIFT"
	WarnBreakTypeMismatch   WarningCode = "BREAK_TYPE_MISMATCH"
	WarnInvalidShift        WarningCode = "INVALID_SHIFT"
)

// DataQualityWarning is attached to results instead of failing the shift.
type DataQualityWarning struct {
	ShiftID string      `json:"shift_id"`
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func newWarning(shiftID string, code WarningCode, format string, args ...any) DataQualityWarning {
	return DataQualityWarning{ShiftID: shiftID, Code: code, Message: fmt.Sprintf(format, args...)}
}
