/*
ratetable.go - Immutable award rate configuration

PURPOSE:
  Holds base rates per classification, penalty rules and allowance rates.
  A RateTable is validated once at construction and only read afterwards,
  so one table can back any number of concurrent calculations.

VALIDATION:
  - AwardRate windows for the same classification must not overlap
    (effective_from and effective_to are inclusive).
  - Penalty multipliers are >= 1.0, ids are unique.
  - Time windows are well formed; LATE_NIGHT allowances need a window.
  - Rules may only reference classifications the table knows about.

SEE ALSO:
  - resolve.go: Matches rules against segments
  - factory/rates.go: Builds a RateConfig from JSON or YAML
*/
package award

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// AwardRate is the base hourly rate for a classification over a date range.
type AwardRate struct {
	Classification Classification  `json:"classification"`
	BaseHourlyRate decimal.Decimal `json:"base_hourly_rate"`
	EffectiveFrom  Date            `json:"effective_from"`
	EffectiveTo    *Date           `json:"effective_to,omitempty"`
}

func (r AwardRate) EffectiveOn(d Date) bool {
	return effectiveOn(&r.EffectiveFrom, r.EffectiveTo, d)
}

// PenaltyRule multiplies the base rate for segments on a day type and,
// optionally, inside a time window.
type PenaltyRule struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	DayType         DayType          `json:"day_type"`
	Window          *TimeWindow      `json:"time_window,omitempty"`
	Multiplier      decimal.Decimal  `json:"multiplier"`
	Precedence      int              `json:"precedence"`
	Classifications []Classification `json:"classifications,omitempty"`
	EffectiveFrom   *Date            `json:"effective_from,omitempty"`
	EffectiveTo     *Date            `json:"effective_to,omitempty"`
}

type AllowanceBasis string

const (
	BasisFlat    AllowanceBasis = "FLAT"
	BasisPerHour AllowanceBasis = "PER_HOUR"
)

// Well-known allowance triggers. Any other trigger is a tag looked up on
// the shift and the employee.
const (
	TriggerSplitShift = "SPLIT_SHIFT"
	TriggerLateNight  = "LATE_NIGHT"
	TriggerFirstAid   = "FIRST_AID"
)

// AllowanceRate is a fixed or hourly amount paid when its trigger holds.
type AllowanceRate struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	Amount          decimal.Decimal  `json:"amount"`
	Basis           AllowanceBasis   `json:"basis"`
	Trigger         string           `json:"trigger"`
	Window          *TimeWindow      `json:"time_window,omitempty"`
	DayType         DayType          `json:"day_type,omitempty"`
	Classifications []Classification `json:"classifications,omitempty"`
	EffectiveFrom   *Date            `json:"effective_from,omitempty"`
	EffectiveTo     *Date            `json:"effective_to,omitempty"`
}

// RateConfig is the raw input to NewRateTable.
type RateConfig struct {
	Name       string          `json:"name,omitempty"`
	Rates      []AwardRate     `json:"rates"`
	Penalties  []PenaltyRule   `json:"penalties"`
	Allowances []AllowanceRate `json:"allowances"`
}

// =============================================================================
// RATE TABLE
// =============================================================================

type RateTable struct {
	name            string
	rates           map[Classification][]AwardRate
	classifications []Classification
	penalties       []PenaltyRule
	allowances      []AllowanceRate
	boundaries      []ClockTime
}

// NewRateTable validates cfg and returns an immutable table.
func NewRateTable(cfg RateConfig) (*RateTable, error) {
	t := &RateTable{
		name:  cfg.Name,
		rates: make(map[Classification][]AwardRate),
	}

	for i, r := range cfg.Rates {
		if r.Classification == "" {
			return nil, configErr(indexField("rates", i), "classification is required")
		}
		if !r.BaseHourlyRate.IsPositive() {
			return nil, configErr(indexField("rates", i), "base hourly rate must be positive, got %s", r.BaseHourlyRate)
		}
		if r.EffectiveFrom.IsZero() {
			return nil, configErr(indexField("rates", i), "effective_from is required")
		}
		if r.EffectiveTo != nil && r.EffectiveTo.Before(r.EffectiveFrom) {
			return nil, configErr(indexField("rates", i), "effective_to %s before effective_from %s", r.EffectiveTo, r.EffectiveFrom)
		}
		r.EffectiveTo = copyDate(r.EffectiveTo)
		t.rates[r.Classification] = append(t.rates[r.Classification], r)
	}

	for c := range t.rates {
		t.classifications = append(t.classifications, c)
	}
	sort.Slice(t.classifications, func(i, j int) bool { return t.classifications[i] < t.classifications[j] })

	for _, c := range t.classifications {
		rates := t.rates[c]
		sort.SliceStable(rates, func(i, j int) bool { return rates[i].EffectiveFrom.Before(rates[j].EffectiveFrom) })
		for i := 1; i < len(rates); i++ {
			prev, next := rates[i-1], rates[i]
			if prev.EffectiveTo == nil || !next.EffectiveFrom.After(*prev.EffectiveTo) {
				return nil, configErr("rates["+string(c)+"]", "effective windows starting %s and %s overlap", prev.EffectiveFrom, next.EffectiveFrom)
			}
		}
	}

	seen := make(map[string]bool)
	for i, p := range cfg.Penalties {
		field := indexField("penalties", i)
		if p.ID == "" {
			return nil, configErr(field, "id is required")
		}
		if seen["p:"+p.ID] {
			return nil, configErr(field, "duplicate penalty id %q", p.ID)
		}
		seen["p:"+p.ID] = true
		if !p.DayType.Valid() {
			return nil, configErr(field, "unknown day type %q", p.DayType)
		}
		if p.Multiplier.LessThan(one) {
			return nil, configErr(field, "multiplier %s is below 1.0", p.Multiplier)
		}
		if err := t.validateScope(field, p.Window, p.Classifications, p.EffectiveFrom, p.EffectiveTo); err != nil {
			return nil, err
		}
		t.penalties = append(t.penalties, clonePenalty(p))
	}
	sort.SliceStable(t.penalties, func(i, j int) bool {
		if t.penalties[i].Precedence != t.penalties[j].Precedence {
			return t.penalties[i].Precedence < t.penalties[j].Precedence
		}
		return t.penalties[i].ID < t.penalties[j].ID
	})

	for i, a := range cfg.Allowances {
		field := indexField("allowances", i)
		switch {
		case a.ID == "":
			return nil, configErr(field, "id is required")
		case seen["a:"+a.ID]:
			return nil, configErr(field, "duplicate allowance id %q", a.ID)
		case a.Type == "":
			return nil, configErr(field, "type is required")
		case a.Trigger == "":
			return nil, configErr(field, "trigger is required")
		case a.Amount.IsNegative():
			return nil, configErr(field, "amount %s is negative", a.Amount)
		case a.Basis != BasisFlat && a.Basis != BasisPerHour:
			return nil, configErr(field, "unknown basis %q", a.Basis)
		case a.Trigger == TriggerLateNight && a.Window == nil:
			return nil, configErr(field, "LATE_NIGHT allowance requires a time window")
		case a.DayType != "" && !a.DayType.Valid():
			return nil, configErr(field, "unknown day type %q", a.DayType)
		}
		seen["a:"+a.ID] = true
		if err := t.validateScope(field, a.Window, a.Classifications, a.EffectiveFrom, a.EffectiveTo); err != nil {
			return nil, err
		}
		t.allowances = append(t.allowances, cloneAllowance(a))
	}

	t.boundaries = collectBoundaries(t.penalties, t.allowances)
	return t, nil
}

func (t *RateTable) validateScope(field string, w *TimeWindow, classes []Classification, from, to *Date) error {
	if w != nil {
		if err := w.Validate(); err != nil {
			return configErr(field, "%v", err)
		}
	}
	for _, c := range classes {
		if !t.HasClassification(c) {
			return configErr(field, "references unknown classification %q", c)
		}
	}
	if from != nil && to != nil && to.Before(*from) {
		return configErr(field, "effective_to %s before effective_from %s", to, from)
	}
	return nil
}

func (t *RateTable) Name() string { return t.name }

// HasClassification reports whether any rate exists for c.
func (t *RateTable) HasClassification(c Classification) bool {
	_, ok := t.rates[c]
	return ok
}

func (t *RateTable) Classifications() []Classification {
	return append([]Classification(nil), t.classifications...)
}

// RateFor returns the rate effective for c on d.
func (t *RateTable) RateFor(c Classification, d Date) (AwardRate, error) {
	rates, ok := t.rates[c]
	if !ok {
		return AwardRate{}, &UnknownClassificationError{Classification: c}
	}
	for _, r := range rates {
		if r.EffectiveOn(d) {
			return r, nil
		}
	}
	return AwardRate{}, &RateNotFoundError{Classification: c, Date: d}
}

// Penalties returns the rules ordered by precedence, then id.
func (t *RateTable) Penalties() []PenaltyRule {
	out := make([]PenaltyRule, len(t.penalties))
	for i, p := range t.penalties {
		out[i] = clonePenalty(p)
	}
	return out
}

func (t *RateTable) Allowances() []AllowanceRate {
	out := make([]AllowanceRate, len(t.allowances))
	for i, a := range t.allowances {
		out[i] = cloneAllowance(a)
	}
	return out
}

// Boundaries returns the sorted, distinct clock times at which any rule
// window opens or closes.
func (t *RateTable) Boundaries() []ClockTime {
	return append([]ClockTime(nil), t.boundaries...)
}

// Config reconstructs a RateConfig equivalent to the one the table was
// built from.
func (t *RateTable) Config() RateConfig {
	cfg := RateConfig{Name: t.name, Penalties: t.Penalties(), Allowances: t.Allowances()}
	for _, c := range t.classifications {
		for _, r := range t.rates[c] {
			r.EffectiveTo = copyDate(r.EffectiveTo)
			cfg.Rates = append(cfg.Rates, r)
		}
	}
	return cfg
}

// =============================================================================
// HELPERS
// =============================================================================

func collectBoundaries(penalties []PenaltyRule, allowances []AllowanceRate) []ClockTime {
	set := make(map[ClockTime]bool)
	add := func(w *TimeWindow) {
		if w == nil {
			return
		}
		set[w.Start] = true
		set[w.End%MinutesPerDay] = true
	}
	for _, p := range penalties {
		add(p.Window)
	}
	for _, a := range allowances {
		add(a.Window)
	}
	out := make([]ClockTime, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func effectiveOn(from, to *Date, d Date) bool {
	if from != nil && !from.IsZero() && d.Before(*from) {
		return false
	}
	return to == nil || to.IsZero() || !d.After(*to)
}

func classificationAllowed(scope []Classification, c Classification) bool {
	if len(scope) == 0 {
		return true
	}
	for _, s := range scope {
		if s == c {
			return true
		}
	}
	return false
}

func clonePenalty(p PenaltyRule) PenaltyRule {
	if p.Window != nil {
		w := *p.Window
		p.Window = &w
	}
	p.Classifications = append([]Classification(nil), p.Classifications...)
	p.EffectiveFrom = copyDate(p.EffectiveFrom)
	p.EffectiveTo = copyDate(p.EffectiveTo)
	return p
}

func cloneAllowance(a AllowanceRate) AllowanceRate {
	if a.Window != nil {
		w := *a.Window
		a.Window = &w
	}
	a.Classifications = append([]Classification(nil), a.Classifications...)
	a.EffectiveFrom = copyDate(a.EffectiveFrom)
	a.EffectiveTo = copyDate(a.EffectiveTo)
	return a
}

func copyDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func indexField(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}
