package award_test

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/award-engine/award"
)

func TestComputeShiftPay_FridayNightIntoSaturday(t *testing.T) {
	engine := newTestEngine(t, nil)

	// WHEN: Friday 23:00 to Saturday 01:00
	b, err := engine.ComputeShiftPay(shift("s1", "2025-08-01", "23:00", "01:00"), employee())
	require.NoError(t, err)

	// THEN: the Friday hour carries the evening loading, the Saturday hour
	// the Saturday penalty, each rated independently
	require.Len(t, b.Lines, 2)
	assert.Equal(t, []string{"weekday-evening"}, b.Lines[0].RuleIDs)
	assert.True(t, b.Lines[0].PenaltyMultiplier.Equal(dec("1.1")))
	assert.Equal(t, []string{"saturday"}, b.Lines[1].RuleIDs)
	assert.True(t, b.Lines[1].PenaltyMultiplier.Equal(dec("1.25")))

	assert.Equal(t, money("60.00"), b.OrdinaryAmount)
	assert.Equal(t, money("10.50"), b.PenaltyAmount)
	assert.Equal(t, money("0.00"), b.OvertimeAmount)
	assert.Equal(t, money("70.50"), b.Total)
}

func TestComputeShiftPay_PublicHolidayOnTuesday(t *testing.T) {
	cal := award.NewStaticCalendar(award.PublicHoliday{Name: "Melbourne Cup", Date: date("2025-11-04")})
	engine := newTestEngine(t, cal)

	b, err := engine.ComputeShiftPay(shift("s1", "2025-11-04", "09:00", "13:00"), employee())
	require.NoError(t, err)

	for _, line := range b.Lines {
		assert.Equal(t, award.DayPublicHoliday, line.DayType)
	}
	assert.Equal(t, money("120.00"), b.OrdinaryAmount)
	assert.Equal(t, money("150.00"), b.PenaltyAmount)
	assert.Equal(t, money("270.00"), b.Total)
}

func TestComputeShiftPay_DailyOvertimeTiers(t *testing.T) {
	engine := newTestEngine(t, nil)

	// GIVEN: a 12 hour Monday shift with no breaks
	b, err := engine.ComputeShiftPay(shift("s1", "2025-08-04", "07:00", "19:00"), employee())
	require.NoError(t, err)

	// THEN: 8h ordinary, 2h at 1.5x, 2h at 2.0x
	assert.Equal(t, int64(480), b.OrdinaryMinutes)
	assert.Equal(t, int64(240), b.OvertimeMinutes)
	require.Len(t, b.Lines, 3)
	assert.Equal(t, award.LineOrdinary, b.Lines[0].Category)
	assert.True(t, b.Lines[1].Multiplier.Equal(dec("1.5")))
	assert.Equal(t, int64(120), b.Lines[1].Minutes)
	assert.True(t, b.Lines[2].Multiplier.Equal(dec("2")))

	assert.Equal(t, money("240.00"), b.OrdinaryAmount)
	assert.Equal(t, money("210.00"), b.OvertimeAmount)
	assert.Equal(t, money("450.00"), b.Total)
}

func TestComputeShiftPay_OvertimeComposition(t *testing.T) {
	tests := []struct {
		composition award.OvertimeComposition
		overtime    string
	}{
		{award.ComposeAdditive, "120.00"},       // 1.5 + 0.5 = 2.0
		{award.ComposeMultiplicative, "135.00"}, // 1.5 x 1.5 = 2.25
		{award.ComposeHighest, "90.00"},         // max(1.5, 1.5)
	}
	for _, tt := range tests {
		t.Run(string(tt.composition), func(t *testing.T) {
			engine := newTestEngine(t, nil, func(c *award.Config) { c.Overtime.Composition = tt.composition })

			// Sunday, 10 hours: 8 ordinary at 1.5x, 2 overtime
			b, err := engine.ComputeShiftPay(shift("s1", "2025-08-03", "10:00", "20:00"), employee())
			require.NoError(t, err)

			assert.Equal(t, money("240.00"), b.OrdinaryAmount)
			assert.Equal(t, money("120.00"), b.PenaltyAmount)
			assert.Equal(t, money(tt.overtime), b.OvertimeAmount)
			assert.True(t, b.Reconciles())
		})
	}
}

func TestComputeShiftPay_Allowances(t *testing.T) {
	engine := newTestEngine(t, nil)

	// GIVEN: a split shift worked by a first aid officer
	emp := employee()
	emp.Tags = []string{"first_aid"}
	s := shift("s1", "2025-08-04", "10:00", "21:00", mealBreak("14:00", "17:00")...)

	b, err := engine.ComputeShiftPay(s, emp)
	require.NoError(t, err)

	require.Len(t, b.Allowances, 2)
	assert.Equal(t, "split", b.Allowances[0].AllowanceID)
	assert.Equal(t, money("4.94"), b.Allowances[0].Amount)
	assert.Equal(t, "first-aid", b.Allowances[1].AllowanceID)
	assert.Equal(t, money("7.94"), b.AllowanceTotal())
	assert.True(t, b.IsSplit)
	assert.True(t, b.Reconciles())
}

func TestComputeShiftPay_RateNotFoundIsFatal(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.ComputeShiftPay(shift("old", "2024-01-15", "09:00", "17:00"), employee())

	require.Error(t, err)
	assert.True(t, errors.Is(err, award.ErrRateNotFound))
	var notFound *award.RateNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "old", notFound.ShiftID)
	assert.Equal(t, gradeTwo, notFound.Classification)
}

func TestComputeShiftPay_UnknownClassification(t *testing.T) {
	engine := newTestEngine(t, nil)
	emp := employee()
	emp.Classification = "BARISTA_LEVEL_9"

	_, err := engine.ComputeShiftPay(shift("s1", "2025-08-04", "09:00", "17:00"), emp)

	assert.ErrorIs(t, err, award.ErrUnknownClassification)
	assert.True(t, award.IsUnprocessable(err))
}

func TestComputeShiftPay_ZeroLengthShift(t *testing.T) {
	engine := newTestEngine(t, nil)

	b, err := engine.ComputeShiftPay(shift("s1", "2025-08-04", "09:00", "09:00"), employee())

	require.NoError(t, err)
	assert.Equal(t, award.Money(0), b.Total)
	assert.Equal(t, []award.WarningCode{award.WarnZeroLengthShift}, warningCodes(b.Warnings))
}

func TestComputeShiftPay_Reconciles(t *testing.T) {
	cal := award.NewStaticCalendar(award.PublicHoliday{Name: "Melbourne Cup", Date: date("2025-11-04")})
	engine := newTestEngine(t, cal)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		s := randomShift(rng)
		emp := employee()
		if rng.Intn(3) == 0 {
			emp.Tags = []string{"FIRST_AID"}
		}

		b, err := engine.ComputeShiftPay(s, emp)
		require.NoError(t, err)
		assert.Equal(t, b.OrdinaryAmount+b.OvertimeAmount+b.PenaltyAmount+b.AllowanceTotal(), b.Total, "shift %d", i)
		assert.Equal(t, b.PaidMinutes, b.OrdinaryMinutes+b.OvertimeMinutes)
	}
}

func TestComputeShiftPay_Idempotent(t *testing.T) {
	engine := newTestEngine(t, nil)
	s := shift("s1", "2025-08-01", "17:00", "03:30", mealBreak("21:00", "21:30")...)

	first, err := engine.ComputeShiftPay(s, employee())
	require.NoError(t, err)
	second, err := engine.ComputeShiftPay(s, employee())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestComputeShiftPay_MonotonicInEndTime(t *testing.T) {
	engine := newTestEngine(t, nil)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		day := date("2025-07-28").AddDays(rng.Intn(14))
		start := award.ClockTime(rng.Intn(96) * 15)

		var previous award.Money
		for length := 15; length < award.MinutesPerDay; length += 15 {
			s := award.RosterShift{
				ID:         "m",
				EmployeeID: "emp-1",
				Date:       day,
				StartTime:  start,
				EndTime:    award.ClockTime((int(start) + length) % award.MinutesPerDay),
			}
			b, err := engine.ComputeShiftPay(s, employee())
			require.NoError(t, err)
			require.GreaterOrEqual(t, int64(b.Total), int64(previous), "start %s length %d", start, length)
			previous = b.Total
		}
	}
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount award.Money `json:"amount"`
	}{Amount: 12345})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"123.45"}`, string(data))

	var m award.Money
	require.NoError(t, json.Unmarshal([]byte(`"0.005"`), &m))
	assert.Equal(t, award.Money(1), m, "half a cent rounds away from zero")
}

func randomShift(rng *rand.Rand) award.RosterShift {
	day := date("2025-10-27").AddDays(rng.Intn(14))
	start := rng.Intn(96) * 15
	length := 15 + rng.Intn(56)*15
	s := award.RosterShift{
		ID:         "r" + day.String(),
		EmployeeID: "emp-1",
		Date:       day,
		StartTime:  award.ClockTime(start),
		EndTime:    award.ClockTime((start + length) % award.MinutesPerDay),
	}
	if length > 240 && rng.Intn(2) == 0 {
		at := start + 120 + rng.Intn(8)*15
		s.Breaks = []award.BreakEvent{
			{EventType: award.BreakStart, EventTime: award.ClockTime(at % award.MinutesPerDay), BreakType: award.MealUnpaid},
			{EventType: award.BreakEnd, EventTime: award.ClockTime((at + 30) % award.MinutesPerDay), BreakType: award.MealUnpaid},
		}
	}
	if rng.Intn(4) == 0 {
		s.Tags = []string{"first_aid"}
	}
	return s
}
