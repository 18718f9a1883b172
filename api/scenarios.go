/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	rosters for demos. Each scenario installs the hospitality rate preset
	and stores holidays, employees and shifts that exercise specific
	engine behaviour.

AVAILABLE SCENARIOS:

	weekend-roster:  Christmas week: public holidays, weekend penalties,
	                 overnight shifts, a split shift and evening loadings
	fatigue-risk:    Short turnarounds over seven straight days, an
	                 unknown classification and missing super details
	rate-change:     Shifts either side of the 1 July rate increase

HOW SCENARIOS WORK:
 1. Reset database (clear employees, shifts, holidays, audit runs)
 2. Install the hospitality preset as a new rate version
 3. Convert the scenario roster document via factory
 4. Store holidays, employees and shifts

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "weekend-roster"}

	then POST /api/audit/run or GET /api/employees/{id}/shifts

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a roster document to 'scenarioRosters'

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/preset.go: Hospitality rate preset
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/award-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "weekend-roster",
		Name:        "Weekend Roster",
		Description: "Christmas week with public holidays, weekend and evening penalties, overnight and split shifts",
		Category:    "pay",
	},
	{
		ID:          "fatigue-risk",
		Name:        "Fatigue Risk",
		Description: "Short turnarounds across seven consecutive days plus incomplete employee records",
		Category:    "compliance",
	},
	{
		ID:          "rate-change",
		Name:        "Rate Change",
		Description: "Shifts either side of the 1 July 2025 rate increase",
		Category:    "pay",
	},
}

func mealBreak(start, end string) []factory.BreakDoc {
	return []factory.BreakDoc{
		{EventType: "BREAK_START", EventTime: start, BreakType: "MEAL_UNPAID"},
		{EventType: "BREAK_END", EventTime: end, BreakType: "MEAL_UNPAID"},
	}
}

var scenarioRosters = map[string]factory.RosterDocument{
	"weekend-roster": {
		Holidays: []factory.HolidayDoc{
			{ID: "ph-christmas", Name: "Christmas Day", Date: "2025-12-25", Recurring: true},
			{ID: "ph-boxing", Name: "Boxing Day", Date: "2025-12-26", Recurring: true},
		},
		Employees: []factory.EmployeeDoc{
			{ID: "emp-ava", Name: "Ava Nguyen", Classification: "FB_GRADE_2", EmploymentType: "FULL_TIME", SuperFundName: "AustralianSuper"},
			{ID: "emp-ben", Name: "Ben Walsh", Classification: "COOK_GRADE_3", EmploymentType: "CASUAL", SuperFundName: "Hostplus", Tags: []string{"FIRST_AID"}},
			{ID: "emp-cara", Name: "Cara Singh", Classification: "FB_GRADE_1", EmploymentType: "PART_TIME", SuperFundName: "Rest"},
		},
		Shifts: []factory.ShiftDoc{
			{ID: "ava-mon", EmployeeID: "emp-ava", Date: "2025-12-22", StartTime: "09:00", EndTime: "17:30", Breaks: mealBreak("13:00", "13:30")},
			{ID: "ava-xmas", EmployeeID: "emp-ava", Date: "2025-12-25", StartTime: "10:00", EndTime: "18:00"},
			{ID: "ava-boxing-night", EmployeeID: "emp-ava", Date: "2025-12-26", StartTime: "17:00", EndTime: "01:00", Breaks: mealBreak("21:00", "21:30")},
			{ID: "ben-split", EmployeeID: "emp-ben", Date: "2025-12-24", StartTime: "10:00", EndTime: "21:00", Breaks: mealBreak("14:00", "17:00")},
			{ID: "ben-sat", EmployeeID: "emp-ben", Date: "2025-12-27", StartTime: "16:00", EndTime: "23:30", Breaks: mealBreak("19:30", "20:00")},
			{ID: "ben-sun", EmployeeID: "emp-ben", Date: "2025-12-28", StartTime: "10:00", EndTime: "18:00"},
			{ID: "cara-evening", EmployeeID: "emp-cara", Date: "2025-12-23", StartTime: "19:00", EndTime: "23:00"},
			{ID: "cara-early", EmployeeID: "emp-cara", Date: "2025-12-30", StartTime: "05:00", EndTime: "11:00"},
		},
	},
	"fatigue-risk": {
		Employees: []factory.EmployeeDoc{
			{ID: "emp-dan", Name: "Dan Okafor", Classification: "FB_GRADE_3", EmploymentType: "FULL_TIME"},
			{ID: "emp-eve", Name: "Eve Martin", Classification: "BAR_MANAGER", EmploymentType: "CASUAL", SuperFundName: "Hostplus"},
		},
		Shifts: []factory.ShiftDoc{
			{ID: "dan-1", EmployeeID: "emp-dan", Date: "2025-08-04", StartTime: "15:00", EndTime: "23:00"},
			{ID: "dan-2", EmployeeID: "emp-dan", Date: "2025-08-05", StartTime: "06:00", EndTime: "14:00"},
			{ID: "dan-3", EmployeeID: "emp-dan", Date: "2025-08-06", StartTime: "15:00", EndTime: "23:00"},
			{ID: "dan-4", EmployeeID: "emp-dan", Date: "2025-08-07", StartTime: "06:00", EndTime: "14:00"},
			{ID: "dan-5", EmployeeID: "emp-dan", Date: "2025-08-08", StartTime: "14:00", EndTime: "22:00"},
			{ID: "dan-6", EmployeeID: "emp-dan", Date: "2025-08-09", StartTime: "14:00", EndTime: "22:00"},
			{ID: "dan-7", EmployeeID: "emp-dan", Date: "2025-08-10", StartTime: "10:00", EndTime: "18:00"},
			{
				ID: "eve-1", EmployeeID: "emp-eve", Date: "2025-08-05", StartTime: "18:00", EndTime: "23:00",
				Breaks: []factory.BreakDoc{{EventType: "BREAK_START", EventTime: "20:30", BreakType: "MEAL_UNPAID"}},
			},
		},
	},
	"rate-change": {
		Employees: []factory.EmployeeDoc{
			{ID: "emp-finn", Name: "Finn Kelly", Classification: "COOK_GRADE_2", EmploymentType: "FULL_TIME", SuperFundName: "Cbus"},
		},
		Shifts: []factory.ShiftDoc{
			{ID: "finn-jun-27", EmployeeID: "emp-finn", Date: "2025-06-27", StartTime: "08:00", EndTime: "16:30", Breaks: mealBreak("12:00", "12:30")},
			{ID: "finn-jun-30", EmployeeID: "emp-finn", Date: "2025-06-30", StartTime: "08:00", EndTime: "16:30", Breaks: mealBreak("12:00", "12:30")},
			{ID: "finn-jul-01", EmployeeID: "emp-finn", Date: "2025-07-01", StartTime: "08:00", EndTime: "16:30", Breaks: mealBreak("12:00", "12:30")},
			{ID: "finn-jul-02", EmployeeID: "emp-finn", Date: "2025-07-02", StartTime: "08:00", EndTime: "18:30", Breaks: mealBreak("12:00", "12:30")},
		},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := scenarioRosters[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	doc := scenarioRosters[id]
	roster, err := doc.Roster()
	if err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	if _, err := h.SetRates(ctx, factory.HospitalityPreset()); err != nil {
		return err
	}
	for _, hol := range roster.Holidays {
		if _, err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}
	for _, emp := range roster.Employees {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	for _, s := range roster.Shifts {
		if err := h.Store.SaveShift(ctx, s); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	h.logger.Info("scenario loaded",
		zap.String("scenario", id),
		zap.Int("employees", len(roster.Employees)),
		zap.Int("shifts", len(roster.Shifts)))
	return nil
}
