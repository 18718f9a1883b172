package award

import (
	"github.com/shopspring/decimal"
)

// CombinationPolicy decides how several matching penalty rules combine.
type CombinationPolicy string

const (
	// CombineHighest applies the single largest multiplier. Ties go to the
	// lowest precedence, then the lowest id.
	CombineHighest CombinationPolicy = "HIGHEST"
	// CombineAdditive applies 1 + sum(multiplier - 1).
	CombineAdditive CombinationPolicy = "ADDITIVE"
	// CombinePrecedence applies the lowest-precedence rule regardless of size.
	CombinePrecedence CombinationPolicy = "PRECEDENCE"
)

func (p CombinationPolicy) Valid() bool {
	return p == CombineHighest || p == CombineAdditive || p == CombinePrecedence
}

// ResolvedSegment is a segment priced with its base rate and penalty.
type ResolvedSegment struct {
	TimeSegment
	BaseRate   decimal.Decimal `json:"base_rate"`
	Multiplier decimal.Decimal `json:"multiplier"`
	RuleIDs    []string        `json:"rule_ids,omitempty"`
}

// AllowanceDetail is one allowance paid on a shift.
type AllowanceDetail struct {
	AllowanceID string         `json:"allowance_id"`
	Type        string         `json:"type"`
	Trigger     string         `json:"trigger"`
	Basis       AllowanceBasis `json:"basis"`
	Minutes     int64          `json:"minutes"`
	Amount      Money          `json:"amount"`
}

// RateResolver prices segments against a RateTable.
type RateResolver struct {
	table  *RateTable
	policy CombinationPolicy
}

func NewRateResolver(table *RateTable, policy CombinationPolicy) *RateResolver {
	if !policy.Valid() {
		policy = CombineHighest
	}
	return &RateResolver{table: table, policy: policy}
}

// Resolve prices one segment for a classification, using the rate
// effective on the shift date.
func (r *RateResolver) Resolve(seg TimeSegment, classification Classification, on Date) (ResolvedSegment, error) {
	rate, err := r.table.RateFor(classification, on)
	if err != nil {
		return ResolvedSegment{}, err
	}
	return r.price(seg, classification, on, rate.BaseHourlyRate), nil
}

// ResolveAll prices every segment with one base rate.
func (r *RateResolver) ResolveAll(segs []TimeSegment, classification Classification, on Date, rate AwardRate) []ResolvedSegment {
	out := make([]ResolvedSegment, 0, len(segs))
	for _, seg := range segs {
		out = append(out, r.price(seg, classification, on, rate.BaseHourlyRate))
	}
	return out
}

func (r *RateResolver) price(seg TimeSegment, classification Classification, on Date, base decimal.Decimal) ResolvedSegment {
	var matched []PenaltyRule
	for _, p := range r.table.penalties {
		if penaltyApplies(p, seg, classification, on) {
			matched = append(matched, p)
		}
	}
	mult, ids := combinePenalties(r.policy, matched)
	return ResolvedSegment{TimeSegment: seg, BaseRate: base, Multiplier: mult, RuleIDs: ids}
}

func penaltyApplies(p PenaltyRule, seg TimeSegment, classification Classification, on Date) bool {
	if !p.DayType.matches(seg.DayType) {
		return false
	}
	if p.Window != nil && !p.Window.Contains(seg.StartClock()) {
		return false
	}
	return effectiveOn(p.EffectiveFrom, p.EffectiveTo, on) && classificationAllowed(p.Classifications, classification)
}

// combinePenalties expects matched in precedence order.
func combinePenalties(policy CombinationPolicy, matched []PenaltyRule) (decimal.Decimal, []string) {
	if len(matched) == 0 {
		return one, nil
	}
	switch policy {
	case CombineAdditive:
		total := one
		ids := make([]string, 0, len(matched))
		for _, p := range matched {
			total = total.Add(p.Multiplier.Sub(one))
			ids = append(ids, p.ID)
		}
		return total, ids
	case CombinePrecedence:
		return matched[0].Multiplier, []string{matched[0].ID}
	default:
		best := matched[0]
		for _, p := range matched[1:] {
			if p.Multiplier.GreaterThan(best.Multiplier) {
				best = p
			}
		}
		return best.Multiplier, []string{best.ID}
	}
}

// =============================================================================
// ALLOWANCES
// =============================================================================

// ResolveAllowances evaluates every allowance independently and returns
// the ones that apply, in table order.
func (r *RateResolver) ResolveAllowances(shift RosterShift, employee EmployeeProfile, seg Segmentation) []AllowanceDetail {
	var out []AllowanceDetail
	for _, a := range r.table.allowances {
		if !effectiveOn(a.EffectiveFrom, a.EffectiveTo, shift.Date) ||
			!classificationAllowed(a.Classifications, employee.Classification) ||
			!triggerHolds(a.Trigger, shift, employee, seg) {
			continue
		}

		var minutes int64
		matched := false
		for _, s := range seg.Segments {
			if !a.DayType.matches(s.DayType) {
				continue
			}
			if a.Window != nil && !a.Window.Contains(s.StartClock()) {
				continue
			}
			matched = true
			minutes += s.Minutes()
		}
		if !matched {
			continue
		}

		detail := AllowanceDetail{
			AllowanceID: a.ID,
			Type:        a.Type,
			Trigger:     a.Trigger,
			Basis:       a.Basis,
			Minutes:     minutes,
		}
		if a.Basis == BasisPerHour {
			detail.Amount = centsFromMinuteNumerator(a.Amount.Mul(decimal.NewFromInt(minutes)))
		} else {
			detail.Amount = MoneyFromDecimal(a.Amount)
		}
		out = append(out, detail)
	}
	return out
}

func triggerHolds(trigger string, shift RosterShift, employee EmployeeProfile, seg Segmentation) bool {
	switch trigger {
	case TriggerSplitShift:
		return seg.IsSplit
	case TriggerLateNight:
		// the window restriction decides
		return true
	default:
		return shift.HasTag(trigger) || employee.HasTag(trigger)
	}
}
