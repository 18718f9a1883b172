package award_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/award-engine/award"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const gradeTwo award.Classification = "FB_GRADE_2"

func date(s string) award.Date {
	d, err := award.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func clock(s string) award.ClockTime {
	c, err := award.ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func window(start, end string) *award.TimeWindow {
	return &award.TimeWindow{Start: clock(start), End: clock(end)}
}

// testRateConfig uses a $30 base rate so expected amounts stay readable.
func testRateConfig() award.RateConfig {
	return award.RateConfig{
		Name: "test",
		Rates: []award.AwardRate{
			{Classification: gradeTwo, BaseHourlyRate: dec("30.00"), EffectiveFrom: date("2024-07-01")},
			{Classification: "COOK_GRADE_3", BaseHourlyRate: dec("33.00"), EffectiveFrom: date("2024-07-01")},
		},
		Penalties: []award.PenaltyRule{
			{ID: "public-holiday", DayType: award.DayPublicHoliday, Multiplier: dec("2.25"), Precedence: 1},
			{ID: "saturday", DayType: award.DaySaturday, Multiplier: dec("1.25"), Precedence: 10},
			{ID: "sunday", DayType: award.DaySunday, Multiplier: dec("1.5"), Precedence: 10},
			{ID: "weekday-evening", DayType: award.DayWeekday, Window: window("19:00", "24:00"), Multiplier: dec("1.1"), Precedence: 20},
			{ID: "weekday-early", DayType: award.DayWeekday, Window: window("00:00", "07:00"), Multiplier: dec("1.15"), Precedence: 20},
		},
		Allowances: []award.AllowanceRate{
			{ID: "split", Type: "split_shift", Amount: dec("4.94"), Basis: award.BasisFlat, Trigger: award.TriggerSplitShift},
			{ID: "first-aid", Type: "first_aid", Amount: dec("3.00"), Basis: award.BasisFlat, Trigger: award.TriggerFirstAid},
		},
	}
}

func newTestTable(t *testing.T) *award.RateTable {
	t.Helper()
	table, err := award.NewRateTable(testRateConfig())
	require.NoError(t, err)
	return table
}

func newTestEngine(t *testing.T, cal award.HolidayCalendar, tweak ...func(*award.Config)) *award.Engine {
	t.Helper()
	cfg := award.DefaultConfig()
	for _, fn := range tweak {
		fn(&cfg)
	}
	engine, err := award.NewEngine(newTestTable(t), cal, cfg)
	require.NoError(t, err)
	return engine
}

func employee() award.EmployeeProfile {
	return award.EmployeeProfile{
		ID:             "emp-1",
		Name:           "Alex",
		Classification: gradeTwo,
		EmploymentType: award.FullTime,
		SuperFundName:  "AustralianSuper",
	}
}

func shift(id, day, start, end string, breaks ...award.BreakEvent) award.RosterShift {
	return award.RosterShift{
		ID:         id,
		EmployeeID: "emp-1",
		Date:       date(day),
		StartTime:  clock(start),
		EndTime:    clock(end),
		Breaks:     breaks,
	}
}

func mealBreak(start, end string) []award.BreakEvent {
	return []award.BreakEvent{
		{EventType: award.BreakStart, EventTime: clock(start), BreakType: award.MealUnpaid},
		{EventType: award.BreakEnd, EventTime: clock(end), BreakType: award.MealUnpaid},
	}
}

func money(s string) award.Money {
	m, err := award.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func warningCodes(ws []award.DataQualityWarning) []award.WarningCode {
	codes := make([]award.WarningCode, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}
