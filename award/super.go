package award

import (
	"github.com/shopspring/decimal"
)

// SuperConfig controls the superannuation guarantee calculation.
type SuperConfig struct {
	RatePct decimal.Decimal `json:"rate_pct"`
	// IncludePenalties counts penalty loadings on ordinary hours as
	// ordinary time earnings.
	IncludePenalties bool `json:"include_penalties"`
	// IncludeAllowanceTypes lists allowance types that count as ordinary
	// time earnings.
	IncludeAllowanceTypes []string `json:"include_allowance_types,omitempty"`
}

func DefaultSuperConfig() SuperConfig {
	return SuperConfig{RatePct: decimal.NewFromInt(12), IncludePenalties: true}
}

func (c SuperConfig) Validate() error {
	if c.RatePct.IsNegative() || c.RatePct.GreaterThan(hundred) {
		return configErr("super.rate_pct", "must be between 0 and 100, got %s", c.RatePct)
	}
	return nil
}

// CalculateSuper returns ordinaryEarnings x ratePct / 100, rounded to the
// cent. Non-positive earnings or rates yield zero.
func CalculateSuper(ordinaryEarnings Money, ratePct decimal.Decimal) Money {
	if ordinaryEarnings <= 0 || !ratePct.IsPositive() {
		return 0
	}
	return MoneyFromDecimal(ordinaryEarnings.Decimal().Mul(ratePct).Div(hundred))
}

// OrdinaryTimeEarnings is the super base of one shift. Overtime never
// counts.
func OrdinaryTimeEarnings(b ShiftPayBreakdown, cfg SuperConfig) Money {
	total := b.OrdinaryAmount
	if cfg.IncludePenalties {
		total += b.PenaltyAmount
	}
	for _, a := range b.Allowances {
		if hasTag(cfg.IncludeAllowanceTypes, a.Type) {
			total += a.Amount
		}
	}
	return total
}
