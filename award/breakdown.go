/*
breakdown.go - Shift pay composition

PURPOSE:
  Walks priced segments in time order and splits the paid minutes into
  ordinary time and overtime, then composes the money components.

AMOUNTS:
  ordinary = base x ordinary hours
  penalty  = base x (multiplier - 1) x ordinary hours
  overtime = base x combined multiplier x overtime hours

  Each component accumulates as an exact decimal numerator (dollars x
  minutes) and is rounded to cents exactly once. Allowances are rounded
  on their own. Total is the integer sum of the rounded parts, so

    total == ordinary + overtime + penalty + sum(allowances)

  holds to the cent for every shift.

OVERTIME:
  Minutes past the daily threshold are rated by tiers (first 2h at 1.5x,
  then 2.0x by default). The tier multiplier is composed with the
  segment's penalty according to OvertimeComposition.

SEE ALSO:
  - weekly.go: Period-level overtime on top of these breakdowns
  - super.go: Ordinary time earnings derived from a breakdown
*/
package award

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME CONFIGURATION
// =============================================================================

type OvertimeComposition string

const (
	// ComposeAdditive: penalty + (overtime - 1)
	ComposeAdditive OvertimeComposition = "ADDITIVE"
	// ComposeMultiplicative: penalty x overtime
	ComposeMultiplicative OvertimeComposition = "MULTIPLICATIVE"
	// ComposeHighest: max(penalty, overtime)
	ComposeHighest OvertimeComposition = "HIGHEST"
)

// OvertimeTier applies Multiplier once AfterHours of overtime have been worked.
type OvertimeTier struct {
	AfterHours decimal.Decimal `json:"after_hours"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type OvertimeConfig struct {
	DailyThresholdHours decimal.Decimal     `json:"daily_threshold_hours"`
	Tiers               []OvertimeTier      `json:"tiers"`
	Composition         OvertimeComposition `json:"composition"`
}

func DefaultOvertimeConfig() OvertimeConfig {
	return OvertimeConfig{
		DailyThresholdHours: decimal.NewFromInt(8),
		Tiers: []OvertimeTier{
			{AfterHours: decimal.Zero, Multiplier: decimal.RequireFromString("1.5")},
			{AfterHours: decimal.NewFromInt(2), Multiplier: decimal.NewFromInt(2)},
		},
		Composition: ComposeAdditive,
	}
}

func (c OvertimeConfig) Validate() error {
	if !c.DailyThresholdHours.IsPositive() {
		return configErr("overtime.daily_threshold_hours", "must be positive")
	}
	if !isWholeMinutes(c.DailyThresholdHours) {
		return configErr("overtime.daily_threshold_hours", "%s is not a whole number of minutes", c.DailyThresholdHours)
	}
	if len(c.Tiers) == 0 {
		return configErr("overtime.tiers", "at least one tier is required")
	}
	if !c.Tiers[0].AfterHours.IsZero() {
		return configErr("overtime.tiers[0]", "first tier must start at 0 hours")
	}
	for i, t := range c.Tiers {
		field := indexField("overtime.tiers", i)
		if t.Multiplier.LessThan(one) {
			return configErr(field, "multiplier %s is below 1.0", t.Multiplier)
		}
		if !isWholeMinutes(t.AfterHours) {
			return configErr(field, "%s is not a whole number of minutes", t.AfterHours)
		}
		if i > 0 && !t.AfterHours.GreaterThan(c.Tiers[i-1].AfterHours) {
			return configErr(field, "tiers must be in ascending order")
		}
	}
	switch c.Composition {
	case ComposeAdditive, ComposeMultiplicative, ComposeHighest:
	default:
		return configErr("overtime.composition", "unknown composition %q", c.Composition)
	}
	return nil
}

func (c OvertimeConfig) thresholdMinutes() int64 { return hoursToMinutes(c.DailyThresholdHours) }

// tierAt returns the tier multiplier after into minutes of overtime and the
// minutes left until the next tier starts (-1 on the last tier).
func (c OvertimeConfig) tierAt(into int64) (decimal.Decimal, int64) {
	idx := 0
	for i, t := range c.Tiers {
		if hoursToMinutes(t.AfterHours) <= into {
			idx = i
		}
	}
	if idx+1 < len(c.Tiers) {
		return c.Tiers[idx].Multiplier, hoursToMinutes(c.Tiers[idx+1].AfterHours) - into
	}
	return c.Tiers[idx].Multiplier, -1
}

func (c OvertimeConfig) compose(penalty, overtime decimal.Decimal) decimal.Decimal {
	switch c.Composition {
	case ComposeMultiplicative:
		return penalty.Mul(overtime)
	case ComposeHighest:
		return decimal.Max(penalty, overtime)
	default:
		return penalty.Add(overtime).Sub(one)
	}
}

func hoursToMinutes(h decimal.Decimal) int64 { return h.Mul(sixty).IntPart() }

func isWholeMinutes(h decimal.Decimal) bool {
	m := h.Mul(sixty)
	return m.Equal(m.Truncate(0))
}

func minutesToHours(m int64) decimal.Decimal {
	return decimal.NewFromInt(m).Div(sixty).Round(2)
}

// =============================================================================
// BREAKDOWN
// =============================================================================

type LineCategory string

const (
	LineOrdinary LineCategory = "ORDINARY"
	LineOvertime LineCategory = "OVERTIME"
)

// PayLine is one contiguous run of minutes paid at a single rate.
type PayLine struct {
	Start              time.Time       `json:"start"`
	End                time.Time       `json:"end"`
	Date               Date            `json:"date"`
	DayType            DayType         `json:"day_type"`
	Category           LineCategory    `json:"category"`
	Minutes            int64           `json:"minutes"`
	BaseRate           decimal.Decimal `json:"base_rate"`
	PenaltyMultiplier  decimal.Decimal `json:"penalty_multiplier"`
	OvertimeMultiplier decimal.Decimal `json:"overtime_multiplier"`
	Multiplier         decimal.Decimal `json:"multiplier"`
	RuleIDs            []string        `json:"rule_ids,omitempty"`
}

type ShiftPayBreakdown struct {
	ShiftID         string               `json:"shift_id"`
	EmployeeID      string               `json:"employee_id"`
	Classification  Classification       `json:"classification"`
	Date            Date                 `json:"date"`
	Start           time.Time            `json:"start"`
	End             time.Time            `json:"end"`
	BaseRate        decimal.Decimal      `json:"base_rate"`
	PaidMinutes     int64                `json:"paid_minutes"`
	OrdinaryMinutes int64                `json:"ordinary_minutes"`
	OvertimeMinutes int64                `json:"overtime_minutes"`
	OrdinaryHours   decimal.Decimal      `json:"ordinary_hours"`
	OvertimeHours   decimal.Decimal      `json:"overtime_hours"`
	OrdinaryAmount  Money                `json:"ordinary_amount"`
	PenaltyAmount   Money                `json:"penalty_amount"`
	OvertimeAmount  Money                `json:"overtime_amount"`
	Allowances      []AllowanceDetail    `json:"allowances"`
	Total           Money                `json:"total"`
	IsSplit         bool                 `json:"is_split"`
	Lines           []PayLine            `json:"lines"`
	Warnings        []DataQualityWarning `json:"warnings"`
}

func (b ShiftPayBreakdown) AllowanceTotal() Money {
	var total Money
	for _, a := range b.Allowances {
		total += a.Amount
	}
	return total
}

// Reconciles reports whether the total equals the sum of its components.
func (b ShiftPayBreakdown) Reconciles() bool {
	return b.Total == b.OrdinaryAmount+b.PenaltyAmount+b.OvertimeAmount+b.AllowanceTotal()
}

// PricedShift is everything the calculator needs for one shift.
type PricedShift struct {
	Shift        RosterShift
	Employee     EmployeeProfile
	Rate         AwardRate
	Segmentation Segmentation
	Segments     []ResolvedSegment
	Allowances   []AllowanceDetail
}

// PayBreakdownCalculator is stateless; one instance serves all shifts.
type PayBreakdownCalculator struct {
	overtime OvertimeConfig
}

func NewPayBreakdownCalculator(cfg OvertimeConfig) *PayBreakdownCalculator {
	return &PayBreakdownCalculator{overtime: cfg}
}

func (c *PayBreakdownCalculator) Compute(in PricedShift) ShiftPayBreakdown {
	b := ShiftPayBreakdown{
		ShiftID:        in.Shift.ID,
		EmployeeID:     in.Shift.EmployeeID,
		Classification: in.Employee.Classification,
		Date:           in.Shift.Date,
		Start:          in.Segmentation.Start,
		End:            in.Segmentation.End,
		BaseRate:       in.Rate.BaseHourlyRate,
		IsSplit:        in.Segmentation.IsSplit,
		Allowances:     append([]AllowanceDetail{}, in.Allowances...),
		Lines:          []PayLine{},
		Warnings:       append([]DataQualityWarning{}, in.Segmentation.Warnings...),
	}
	if b.EmployeeID == "" {
		b.EmployeeID = in.Employee.ID
	}

	threshold := c.overtime.thresholdMinutes()
	var worked int64
	ordinaryNum, penaltyNum, otNum := decimal.Zero, decimal.Zero, decimal.Zero

	for _, seg := range in.Segments {
		cursor := seg.Start
		remaining := seg.Minutes()
		for remaining > 0 {
			line := PayLine{
				Start:             cursor,
				Date:              seg.Date,
				DayType:           seg.DayType,
				BaseRate:          seg.BaseRate,
				PenaltyMultiplier: seg.Multiplier,
				RuleIDs:           seg.RuleIDs,
			}
			var take int64
			if worked < threshold {
				take = min(remaining, threshold-worked)
				m := decimal.NewFromInt(take)
				ordinaryNum = ordinaryNum.Add(seg.BaseRate.Mul(m))
				penaltyNum = penaltyNum.Add(seg.BaseRate.Mul(seg.Multiplier.Sub(one)).Mul(m))
				line.Category = LineOrdinary
				line.OvertimeMultiplier = one
				line.Multiplier = seg.Multiplier
				b.OrdinaryMinutes += take
			} else {
				tier, untilNext := c.overtime.tierAt(worked - threshold)
				take = remaining
				if untilNext > 0 && untilNext < take {
					take = untilNext
				}
				combined := c.overtime.compose(seg.Multiplier, tier)
				otNum = otNum.Add(seg.BaseRate.Mul(combined).Mul(decimal.NewFromInt(take)))
				line.Category = LineOvertime
				line.OvertimeMultiplier = tier
				line.Multiplier = combined
				b.OvertimeMinutes += take
			}
			line.Minutes = take
			line.End = cursor.Add(time.Duration(take) * time.Minute)
			b.Lines = append(b.Lines, line)

			cursor = line.End
			worked += take
			remaining -= take
		}
	}

	b.PaidMinutes = worked
	b.OrdinaryHours = minutesToHours(b.OrdinaryMinutes)
	b.OvertimeHours = minutesToHours(b.OvertimeMinutes)
	b.OrdinaryAmount = centsFromMinuteNumerator(ordinaryNum)
	b.PenaltyAmount = centsFromMinuteNumerator(penaltyNum)
	b.OvertimeAmount = centsFromMinuteNumerator(otNum)
	b.Total = b.OrdinaryAmount + b.PenaltyAmount + b.OvertimeAmount + b.AllowanceTotal()
	return b
}
