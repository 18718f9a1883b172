package award

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY PERIOD - The boundary for period-level overtime
// =============================================================================

// PayPeriod is an inclusive date range [Start, End].
type PayPeriod struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func (p PayPeriod) Contains(d Date) bool { return d.Between(p.Start, p.End) }
func (p PayPeriod) Days() int            { return DaysBetween(p.Start, p.End) + 1 }
func (p PayPeriod) String() string       { return "[" + p.Start.String() + ", " + p.End.String() + "]" }

type PayPeriodType string

const (
	PeriodWeekly      PayPeriodType = "WEEKLY"
	PeriodFortnightly PayPeriodType = "FORTNIGHTLY"
)

// PayPeriodConfig anchors a repeating pay cycle on a start date.
type PayPeriodConfig struct {
	Type   PayPeriodType `json:"type"`
	Anchor Date          `json:"anchor"`
}

func (pc PayPeriodConfig) LengthDays() int {
	if pc.Type == PeriodFortnightly {
		return 14
	}
	return 7
}

// PeriodFor returns the pay period that contains the given date. Dates
// before the anchor fall into earlier cycles.
func (pc PayPeriodConfig) PeriodFor(d Date) PayPeriod {
	length := pc.LengthDays()
	offset := DaysBetween(pc.Anchor, d)
	k := offset / length
	if offset%length != 0 && offset < 0 {
		k--
	}
	start := pc.Anchor.AddDays(k * length)
	return PayPeriod{Start: start, End: start.AddDays(length - 1)}
}

// =============================================================================
// WEEKLY OVERTIME AGGREGATOR
// =============================================================================

type WeeklyOvertimeConfig struct {
	OrdinaryHoursPerWeek decimal.Decimal `json:"ordinary_hours_per_week"`
	Period               PayPeriodConfig `json:"period"`
}

func DefaultWeeklyOvertimeConfig() WeeklyOvertimeConfig {
	return WeeklyOvertimeConfig{
		OrdinaryHoursPerWeek: decimal.NewFromInt(38),
		Period:               PayPeriodConfig{Type: PeriodWeekly, Anchor: NewDate(2024, 1, 1)},
	}
}

func (c WeeklyOvertimeConfig) Validate() error {
	if !c.OrdinaryHoursPerWeek.IsPositive() || !isWholeMinutes(c.OrdinaryHoursPerWeek) {
		return configErr("weekly.ordinary_hours_per_week", "must be a positive whole number of minutes, got %s", c.OrdinaryHoursPerWeek)
	}
	if c.Period.Type != PeriodWeekly && c.Period.Type != PeriodFortnightly {
		return configErr("weekly.period.type", "unknown pay period type %q", c.Period.Type)
	}
	if c.Period.Anchor.IsZero() {
		return configErr("weekly.period.anchor", "anchor date is required")
	}
	return nil
}

// WeeklyAdjustment is the extra pay one shift receives because its
// ordinary minutes fell past the period threshold.
type WeeklyAdjustment struct {
	ShiftID string `json:"shift_id"`
	Minutes int64  `json:"minutes"`
	Amount  Money  `json:"amount"`
}

type PeriodOvertime struct {
	Period           PayPeriod          `json:"period"`
	OrdinaryMinutes  int64              `json:"ordinary_minutes"`
	ThresholdMinutes int64              `json:"threshold_minutes"`
	ExcessMinutes    int64              `json:"excess_minutes"`
	Adjustments      []WeeklyAdjustment `json:"adjustments"`
	AdditionalAmount Money              `json:"additional_amount"`
}

type WeeklyOvertimeResult struct {
	EmployeeID       string           `json:"employee_id"`
	Periods          []PeriodOvertime `json:"periods"`
	AdditionalAmount Money            `json:"additional_amount"`
}

// WeeklyOvertimeAggregator applies a period threshold across one
// employee's shift breakdowns. The per-shift calculator stays stateless.
type WeeklyOvertimeAggregator struct {
	cfg      WeeklyOvertimeConfig
	overtime OvertimeConfig
}

func NewWeeklyOvertimeAggregator(cfg WeeklyOvertimeConfig, overtime OvertimeConfig) *WeeklyOvertimeAggregator {
	return &WeeklyOvertimeAggregator{cfg: cfg, overtime: overtime}
}

// Aggregate tops up ordinary minutes beyond the period threshold to the
// first overtime tier, composed with the minute's penalty. Breakdowns are
// processed in start order; the input slice is not modified.
func (a *WeeklyOvertimeAggregator) Aggregate(breakdowns []ShiftPayBreakdown) (WeeklyOvertimeResult, error) {
	result := WeeklyOvertimeResult{Periods: []PeriodOvertime{}}
	if len(breakdowns) == 0 {
		return result, nil
	}

	sorted := append([]ShiftPayBreakdown(nil), breakdowns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].ShiftID < sorted[j].ShiftID
	})

	result.EmployeeID = sorted[0].EmployeeID
	for _, b := range sorted[1:] {
		if b.EmployeeID != result.EmployeeID {
			return WeeklyOvertimeResult{}, ErrMixedEmployees
		}
	}

	weeks := a.cfg.Period.LengthDays() / 7
	threshold := hoursToMinutes(a.cfg.OrdinaryHoursPerWeek) * int64(weeks)
	firstTier := a.overtime.Tiers[0].Multiplier

	var current *PeriodOvertime
	for _, b := range sorted {
		period := a.cfg.Period.PeriodFor(b.Date)
		if current == nil || current.Period != period {
			result.Periods = append(result.Periods, PeriodOvertime{
				Period:           period,
				ThresholdMinutes: threshold,
				Adjustments:      []WeeklyAdjustment{},
			})
			current = &result.Periods[len(result.Periods)-1]
		}

		var excess int64
		numerator := decimal.Zero
		for _, line := range b.Lines {
			if line.Category != LineOrdinary {
				continue
			}
			before := current.OrdinaryMinutes
			current.OrdinaryMinutes += line.Minutes
			over := current.OrdinaryMinutes - max(before, threshold)
			if over <= 0 {
				continue
			}
			uplift := a.overtime.compose(line.PenaltyMultiplier, firstTier).Sub(line.PenaltyMultiplier)
			numerator = numerator.Add(line.BaseRate.Mul(uplift).Mul(decimal.NewFromInt(over)))
			excess += over
		}
		if excess == 0 {
			continue
		}
		adj := WeeklyAdjustment{ShiftID: b.ShiftID, Minutes: excess, Amount: centsFromMinuteNumerator(numerator)}
		current.Adjustments = append(current.Adjustments, adj)
		current.ExcessMinutes += excess
		current.AdditionalAmount += adj.Amount
	}

	for _, p := range result.Periods {
		result.AdditionalAmount += p.AdditionalAmount
	}
	return result, nil
}
