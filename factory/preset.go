/*
preset.go - Built-in hospitality rate table

PURPOSE:
  A ready-to-use rate document for restaurant and cafe staff. The CLI and
  the API fall back to it when no rate file has been loaded, and the
  demo scenarios price shifts against it.

  Base rates are effective from 2024-07-01 and 2025-07-01. Penalties and
  allowances follow the usual hospitality pattern:

    saturday          x1.25
    sunday            x1.50
    public-holiday    x2.25
    weekday-evening   x1.10  19:00-24:00
    weekday-early     x1.15  00:00-07:00
    split-shift       $4.94 flat
    first-aid         $3.00 flat (FIRST_AID tag)
    late-night        $2.60/h  00:00-06:00 (any day)

  Figures are indicative. Load a rate file for production use.

SEE ALSO:
  - factory/rates.go: Document schema
*/
package factory

const presetName = "Hospitality (indicative)"

type presetRate struct {
	classification string
	fy2024, fy2025 string
}

var presetRates = []presetRate{
	{"INTRODUCTORY", "24.10", "24.95"},
	{"FB_GRADE_1", "24.73", "25.60"},
	{"FB_GRADE_2", "25.65", "26.55"},
	{"FB_GRADE_3", "26.12", "27.03"},
	{"COOK_GRADE_1", "25.65", "26.55"},
	{"COOK_GRADE_2", "26.12", "27.03"},
	{"COOK_GRADE_3", "27.36", "28.32"},
}

// HospitalityPreset returns a fresh copy of the built-in document.
func HospitalityPreset() RateConfigDocument {
	doc := RateConfigDocument{Name: presetName}

	for _, r := range presetRates {
		doc.Rates = append(doc.Rates,
			AwardRateDoc{Classification: r.classification, BaseHourlyRate: Number(r.fy2024), EffectiveFrom: "2024-07-01", EffectiveTo: "2025-06-30"},
			AwardRateDoc{Classification: r.classification, BaseHourlyRate: Number(r.fy2025), EffectiveFrom: "2025-07-01"},
		)
	}

	doc.Penalties = []PenaltyRuleDoc{
		{ID: "public-holiday", Name: "Public holiday", DayType: "PUBLIC_HOLIDAY", Multiplier: "2.25", Precedence: 1},
		{ID: "sunday", Name: "Sunday", DayType: "SUNDAY", Multiplier: "1.5", Precedence: 10},
		{ID: "saturday", Name: "Saturday", DayType: "SATURDAY", Multiplier: "1.25", Precedence: 10},
		{ID: "weekday-evening", Name: "Weekday evening", DayType: "WEEKDAY", Window: &WindowDoc{Start: "19:00", End: "24:00"}, Multiplier: "1.1", Precedence: 20},
		{ID: "weekday-early", Name: "Weekday early morning", DayType: "WEEKDAY", Window: &WindowDoc{Start: "00:00", End: "07:00"}, Multiplier: "1.15", Precedence: 20},
	}

	doc.Allowances = []AllowanceDoc{
		{ID: "split-shift", Type: "split_shift", Amount: "4.94", Basis: "FLAT", Trigger: "SPLIT_SHIFT"},
		{ID: "first-aid", Type: "first_aid", Amount: "3.00", Basis: "FLAT", Trigger: "FIRST_AID"},
		{ID: "late-night", Type: "late_night", Amount: "2.60", Basis: "PER_HOUR", Trigger: "LATE_NIGHT", Window: &WindowDoc{Start: "00:00", End: "06:00"}},
	}
	return doc
}
