/*
handlers_test.go - Tests for API handlers

Tests for:
- Shift and pay-period pricing, including error status mapping
- Fatigue, super and leave calculations
- Employee, shift, holiday and rate CRUD
- Metrics exposure
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/award-engine/api"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/metrics"
	"github.com/warp/award-engine/store/sqlite"
)

type testServer struct {
	handler *api.Handler
	store   *sqlite.Store
	router  http.Handler
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	collector := metrics.NewCollector()
	h := api.NewHandler(store, api.Options{Config: award.DefaultConfig(), Region: "VIC", Recorder: collector})
	require.NoError(t, h.LoadRates(context.Background()))

	return &testServer{
		handler: h,
		store:   store,
		router:  api.NewRouter(h, api.RouterConfig{AllowedOrigins: []string{"http://localhost:5173"}, Metrics: collector}),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var waiter = factory.EmployeeDoc{
	ID:             "emp-1",
	Name:           "Sam",
	Classification: "FB_GRADE_2",
	EmploymentType: "full-time",
	SuperFundName:  "AustralianSuper",
}

func dayShift(id, date string) factory.ShiftDoc {
	return factory.ShiftDoc{ID: id, EmployeeID: "emp-1", Date: date, StartTime: "09:00", EndTime: "17:00"}
}

type payShiftResult struct {
	Breakdown struct {
		Total           award.Money `json:"total"`
		OrdinaryMinutes int64       `json:"ordinary_minutes"`
		PenaltyAmount   award.Money `json:"penalty_amount"`
	} `json:"breakdown"`
	Super             award.Money     `json:"super"`
	LeaveAccruedHours decimal.Decimal `json:"leave_accrued_hours"`
	RateTableVersion  int64           `json:"rate_table_version"`
}

// =============================================================================
// PAY
// =============================================================================

func TestPayShift_Weekday(t *testing.T) {
	// GIVEN: a grade 2 waiter working 8 ordinary hours on a Tuesday
	s := newServer(t)

	// WHEN: pricing the shift
	rec := s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{
		Employee: waiter,
		Shift:    dayShift("s1", "2025-08-05"),
	})

	// THEN: 8h x 26.55, 12% super and full-time leave accrue
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[payShiftResult](t, rec)
	assert.Equal(t, award.Money(21240), got.Breakdown.Total)
	assert.Equal(t, int64(480), got.Breakdown.OrdinaryMinutes)
	assert.Equal(t, award.Money(2549), got.Super)
	assert.True(t, got.LeaveAccruedHours.Equal(decimal.RequireFromString("0.6152")), got.LeaveAccruedHours.String())
	assert.Equal(t, int64(1), got.RateTableVersion)
}

func TestPayShift_LeaveUsesExactMinutes(t *testing.T) {
	// GIVEN: 440 minutes, which is not a whole number of hundredths of an hour
	s := newServer(t)
	shift := dayShift("s1", "2025-08-05")
	shift.EndTime = "16:20"

	// WHEN: pricing the shift
	rec := s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{Employee: waiter, Shift: shift})

	// THEN: leave is 440/60 x 0.0769 = 0.56393..., not 7.33 x 0.0769
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[payShiftResult](t, rec)
	assert.Equal(t, int64(440), got.Breakdown.OrdinaryMinutes)
	assert.True(t, got.LeaveAccruedHours.Equal(decimal.RequireFromString("0.5639")), got.LeaveAccruedHours.String())
}

func TestPayShift_InlineHoliday(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{
		Employee: waiter,
		Shift:    dayShift("s1", "2025-08-05"),
		Holidays: []factory.HolidayDoc{{Name: "Show Day", Date: "2025-08-05"}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[payShiftResult](t, rec)
	assert.Equal(t, award.Money(47790), got.Breakdown.Total, "public holiday at 225%")
}

func TestPayShift_ErrorStatus(t *testing.T) {
	unknown := waiter
	unknown.Classification = "SOMMELIER"

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed body", `{"employee":`, http.StatusBadRequest, ""},
		{"bad clock time", api.PayShiftRequest{Employee: waiter, Shift: factory.ShiftDoc{ID: "s1", Date: "2025-08-05", StartTime: "25:00", EndTime: "26:00"}}, http.StatusBadRequest, "invalid_shift"},
		{"bad employment type", api.PayShiftRequest{Employee: factory.EmployeeDoc{ID: "e", Classification: "FB_GRADE_2", EmploymentType: "contractor"}, Shift: dayShift("s1", "2025-08-05")}, http.StatusBadRequest, ""},
		{"unknown classification", api.PayShiftRequest{Employee: unknown, Shift: dayShift("s1", "2025-08-05")}, http.StatusUnprocessableEntity, "unknown_classification"},
		{"no effective rate", api.PayShiftRequest{Employee: waiter, Shift: dayShift("s1", "2023-01-03")}, http.StatusUnprocessableEntity, "rate_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)

			rec := s.do(t, http.MethodPost, "/api/pay/shift", tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			errResp := decodeBody[api.ErrorResponse](t, rec)
			assert.NotEmpty(t, errResp.Error)
			if tt.code != "" {
				assert.Equal(t, tt.code, errResp.Code)
			}
		})
	}
}

func TestPayWeekly_PeriodOvertime(t *testing.T) {
	// GIVEN: five 8-hour weekday shifts, 40h against a 38h week
	s := newServer(t)
	var shifts []factory.ShiftDoc
	for i, date := range []string{"2025-08-04", "2025-08-05", "2025-08-06", "2025-08-07", "2025-08-08"} {
		shifts = append(shifts, dayShift("s"+string(rune('1'+i)), date))
	}
	// plus one that cannot be priced
	shifts = append(shifts, factory.ShiftDoc{ID: "other", EmployeeID: "emp-9", Date: "2025-08-09", StartTime: "09:00", EndTime: "10:00"})

	// WHEN: pricing the week
	rec := s.do(t, http.MethodPost, "/api/pay/weekly", api.PayWeeklyRequest{Employee: waiter, Shifts: shifts})

	// THEN: the last two hours get the 50% uplift and the stray shift fails alone
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got struct {
		Results []struct {
			ShiftID string `json:"shift_id"`
			Error   string `json:"error"`
		} `json:"results"`
		Weekly struct {
			AdditionalAmount award.Money `json:"additional_amount"`
			Periods          []struct {
				ExcessMinutes int64 `json:"excess_minutes"`
			} `json:"periods"`
		} `json:"weekly"`
		Total  award.Money `json:"total"`
		Failed int         `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Len(t, got.Results, 6)
	assert.Equal(t, "other", got.Results[5].ShiftID)
	assert.NotEmpty(t, got.Results[5].Error)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Weekly.Periods, 1)
	assert.Equal(t, int64(120), got.Weekly.Periods[0].ExcessMinutes)
	assert.Equal(t, award.Money(2655), got.Weekly.AdditionalAmount)
	assert.Equal(t, award.Money(5*21240+2655), got.Total)
}

// =============================================================================
// FATIGUE / SUPER / LEAVE
// =============================================================================

func TestAssessFatigue_InlineShortRest(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/fatigue", api.FatigueRequest{Shifts: []factory.ShiftDoc{
		{ID: "close", EmployeeID: "emp-1", Date: "2025-08-04", StartTime: "15:00", EndTime: "23:00"},
		{ID: "open", EmployeeID: "emp-1", Date: "2025-08-05", StartTime: "06:00", EndTime: "14:00"},
	}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a := decodeBody[award.FatigueAssessment](t, rec)
	assert.Equal(t, award.RiskHigh, a.RiskLevel, "7h rest is below the severe threshold")
	assert.Equal(t, "emp-1", a.EmployeeID)
	assert.ElementsMatch(t, []string{"close", "open"}, a.ContributingShiftIDs)
}

func TestAssessFatigue_Errors(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/fatigue", api.FatigueRequest{Shifts: []factory.ShiftDoc{
		dayShift("a", "2025-08-04"),
		{ID: "b", EmployeeID: "emp-2", Date: "2025-08-05", StartTime: "09:00", EndTime: "17:00"},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "mixed employees")
	assert.Equal(t, "mixed_employees", decodeBody[api.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/fatigue", api.FatigueRequest{EmployeeID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/fatigue", api.FatigueRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateSuper(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		super  award.Money
	}{
		{"configured rate", `{"ordinary_earnings":"1000.00"}`, http.StatusOK, 12000},
		{"explicit rate", `{"ordinary_earnings":"1000.00","rate_pct":"11.5"}`, http.StatusOK, 11500},
		{"zero earnings", `{"ordinary_earnings":"0.00"}`, http.StatusOK, 0},
		{"rate above 100", `{"ordinary_earnings":"10.00","rate_pct":150}`, http.StatusBadRequest, 0},
		{"rate not a number", `{"ordinary_earnings":"10.00","rate_pct":"lots"}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)

			rec := s.do(t, http.MethodPost, "/api/super", tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.super, decodeBody[api.SuperResponse](t, rec).Super)
			}
		})
	}
}

func TestCalculateLeave(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		accrued string
	}{
		{"full time", `{"hours_worked":40,"rate_per_hour":"0.0385","employment_type":"FULL_TIME"}`, http.StatusOK, "1.54"},
		{"part time default rate", `{"hours_worked":"10","employment_type":"part-time"}`, http.StatusOK, "0.769"},
		{"casual accrues nothing", `{"hours_worked":40,"employment_type":"casual"}`, http.StatusOK, "0"},
		{"negative hours", `{"hours_worked":-1,"employment_type":"FULL_TIME"}`, http.StatusBadRequest, ""},
		{"unknown type", `{"hours_worked":8,"employment_type":"contractor"}`, http.StatusBadRequest, ""},
		{"missing hours", `{"employment_type":"FULL_TIME"}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)

			rec := s.do(t, http.MethodPost, "/api/leave", tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				got := decodeBody[api.LeaveResponse](t, rec)
				assert.True(t, got.AccruedHours.Equal(decimal.RequireFromString(tt.accrued)), got.AccruedHours.String())
			}
		})
	}
}

// =============================================================================
// AUDIT
// =============================================================================

func TestAudit_Inline(t *testing.T) {
	// GIVEN: three employees, one permanent without a super fund
	s := newServer(t)
	doc := factory.RosterDocument{
		Employees: []factory.EmployeeDoc{
			waiter,
			{ID: "emp-2", Classification: "COOK_GRADE_1", EmploymentType: "PART_TIME"},
			{ID: "emp-3", Classification: "INTRODUCTORY", EmploymentType: "CASUAL"},
		},
		Shifts: []factory.ShiftDoc{dayShift("s1", "2025-08-05")},
	}

	// WHEN: auditing
	rec := s.do(t, http.MethodPost, "/api/audit", doc)

	// THEN: 2 of 3 checks pass
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[award.LabourAuditResult](t, rec)
	assert.Equal(t, 67, result.Score)
	assert.Equal(t, award.CategoryNeedsAttention, result.Category)
	assert.Equal(t, 3, result.EmployeesAudited)

	// THEN: nothing was persisted
	runs, err := s.store.ListAuditRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAudit_InvalidRoster(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/audit", factory.RosterDocument{
		Shifts: []factory.ShiftDoc{{ID: "s1", EmployeeID: "e", Date: "05/08/2025", StartTime: "09:00", EndTime: "17:00"}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAudit_PersistsRuns(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.SaveEmployee(ctx, award.EmployeeProfile{ID: "emp-1", Classification: "FB_GRADE_2", EmploymentType: award.FullTime, SuperFundName: "Rest"}))

	rec := s.do(t, http.MethodPost, "/api/audit/run", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decodeBody[sqlite.AuditRun](t, rec)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 100, run.Result.Score)
	assert.Equal(t, int64(1), run.RateVersion)

	rec = s.do(t, http.MethodPost, "/api/audit/run", `{"from":"2025-08-10","to":"2025-08-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "inverted range")

	rec = s.do(t, http.MethodGet, "/api/audit/runs?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody[struct {
		Runs []sqlite.AuditRun `json:"runs"`
	}](t, rec)
	require.Len(t, listed.Runs, 1)
	assert.Equal(t, run.ID, listed.Runs[0].ID)

	rec = s.do(t, http.MethodGet, "/api/audit/runs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// COLLABORATOR DATA
// =============================================================================

func TestEmployeesAndShifts(t *testing.T) {
	s := newServer(t)

	// unknown classification is refused
	rec := s.do(t, http.MethodPost, "/api/employees", factory.EmployeeDoc{ID: "x", Classification: "PILOT", EmploymentType: "CASUAL"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees", waiter)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, award.FullTime, decodeBody[award.EmployeeProfile](t, rec).EmploymentType)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/employees/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// shifts need a known employee
	orphan := dayShift("s0", "2025-08-04")
	orphan.EmployeeID = "nobody"
	rec = s.do(t, http.MethodPost, "/api/shifts", orphan)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, sh := range []factory.ShiftDoc{dayShift("s2", "2025-08-12"), dayShift("s1", "2025-08-05")} {
		rec = s.do(t, http.MethodPost, "/api/shifts", sh)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/shifts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shifts := decodeBody[[]factory.ShiftDoc](t, rec)
	require.Len(t, shifts, 2)
	assert.Equal(t, "s1", shifts[0].ID)
	assert.Equal(t, "09:00", shifts[0].StartTime)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/shifts?from=2025-08-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]factory.ShiftDoc](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/shifts?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// stored roster feeds the fatigue endpoint
	rec = s.do(t, http.MethodPost, "/api/fatigue", api.FatigueRequest{EmployeeID: "emp-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, award.RiskLow, decodeBody[award.FatigueAssessment](t, rec).RiskLevel)
}

func TestHolidays_FeedThePayCalendar(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/holidays", factory.HolidayDoc{Name: "Show Day"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "date is required")

	rec = s.do(t, http.MethodPost, "/api/holidays", factory.HolidayDoc{Name: "Show Day", Date: "2025-08-05"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[struct {
		Holiday factory.HolidayDoc `json:"holiday"`
	}](t, rec)
	require.NotEmpty(t, created.Holiday.ID)

	rec = s.do(t, http.MethodGet, "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Show Day")

	// stored holidays reach the engine
	rec = s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{Employee: waiter, Shift: dayShift("s1", "2025-08-05")})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, award.Money(47790), decodeBody[payShiftResult](t, rec).Breakdown.Total)

	rec = s.do(t, http.MethodDelete, "/api/holidays/"+created.Holiday.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/holidays/"+created.Holiday.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRates_GetAndReplace(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decodeBody[api.RatesResponse](t, rec)
	assert.Equal(t, int64(1), current.Version)
	assert.Equal(t, factory.HospitalityPreset().Name, current.Document.Name)

	// a penalty below 1 is rejected and the active table is unchanged
	bad := factory.HospitalityPreset()
	bad.Penalties[0].Multiplier = "0.5"
	rec = s.do(t, http.MethodPut, "/api/rates", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody[api.ErrorResponse](t, rec).Field)

	// a raised rate takes effect immediately
	raised := factory.HospitalityPreset()
	for i := range raised.Rates {
		if raised.Rates[i].Classification == "FB_GRADE_2" && raised.Rates[i].EffectiveTo == "" {
			raised.Rates[i].BaseHourlyRate = "30.00"
		}
	}
	rec = s.do(t, http.MethodPut, "/api/rates", raised)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2), decodeBody[api.RatesResponse](t, rec).Version)

	rec = s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{Employee: waiter, Shift: dayShift("s1", "2025-08-05")})
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[payShiftResult](t, rec)
	assert.Equal(t, award.Money(24000), got.Breakdown.Total)
	assert.Equal(t, int64(2), got.RateTableVersion)
}

func TestNoRateTable(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	h := api.NewHandler(store, api.Options{})
	router := api.NewRouter(h, api.RouterConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rates", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/pay/shift", api.PayShiftRequest{Employee: waiter, Shift: dayShift("s1", "2025-08-05")})

	rec := s.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "award_shifts_computed_total 1")
	assert.Contains(t, body, `award_http_requests_total{method="POST",route="/api/pay/shift",status="200"} 1`)
}
