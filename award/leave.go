package award

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type LeaveConfig struct {
	// AccrualRatePerHour is leave hours earned per ordinary hour worked.
	AccrualRatePerHour decimal.Decimal `json:"accrual_rate_per_hour"`
}

// DefaultLeaveConfig accrues four weeks per 52 weeks worked (1/13 of an
// hour per hour).
func DefaultLeaveConfig() LeaveConfig {
	return LeaveConfig{AccrualRatePerHour: decimal.RequireFromString("0.0769")}
}

func (c LeaveConfig) Validate() error {
	if c.AccrualRatePerHour.IsNegative() {
		return configErr("leave.accrual_rate_per_hour", "must not be negative")
	}
	return nil
}

// CalculateLeaveAccrual returns leave hours earned for hoursWorked. Casual
// employees are paid a loading instead and accrue nothing.
func CalculateLeaveAccrual(hoursWorked, ratePerHour decimal.Decimal, employmentType EmploymentType) (decimal.Decimal, error) {
	switch employmentType {
	case Casual:
		return decimal.Zero, nil
	case FullTime, PartTime:
		if hoursWorked.IsNegative() || ratePerHour.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: hours %s, rate %s", ErrNegativeQuantity, hoursWorked, ratePerHour)
		}
		return hoursWorked.Mul(ratePerHour), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidEmploymentType, employmentType)
	}
}

// =============================================================================
// LEAVE ACCRUAL SCHEDULE - Accrual driven by hours actually worked
// =============================================================================

// LeaveAccrualEvent is leave earned by one shift.
type LeaveAccrualEvent struct {
	Date          Date            `json:"date"`
	ShiftID       string          `json:"shift_id"`
	OrdinaryHours decimal.Decimal `json:"ordinary_hours"`
	Hours         decimal.Decimal `json:"hours"`
}

// LeaveAccrualSchedule derives accruals from computed breakdowns.
type LeaveAccrualSchedule struct {
	EmploymentType EmploymentType
	RatePerHour    decimal.Decimal
	Breakdowns     []ShiftPayBreakdown
}

// GenerateAccruals returns one event per shift dated within [from, to].
// Only ordinary minutes accrue.
func (s LeaveAccrualSchedule) GenerateAccruals(from, to Date) ([]LeaveAccrualEvent, error) {
	events := []LeaveAccrualEvent{}
	for _, b := range s.Breakdowns {
		if !b.Date.Between(from, to) || b.OrdinaryMinutes == 0 {
			continue
		}
		hours := decimal.NewFromInt(b.OrdinaryMinutes).Div(sixty)
		earned, err := CalculateLeaveAccrual(hours, s.RatePerHour, s.EmploymentType)
		if err != nil {
			return nil, err
		}
		if earned.IsZero() {
			continue
		}
		events = append(events, LeaveAccrualEvent{
			Date:          b.Date,
			ShiftID:       b.ShiftID,
			OrdinaryHours: hours.Round(2),
			Hours:         earned.Round(4),
		})
	}
	return events, nil
}

// TotalAccrued sums the events' hours.
func TotalAccrued(events []LeaveAccrualEvent) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.Hours)
	}
	return total
}
