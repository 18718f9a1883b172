/*
fatigue.go - Rest-gap and consecutive-day fatigue assessment

PURPOSE:
  Scores one employee's roster history. Two kinds of violation are
  detected:

  1. SHORT_REST - the gap between one shift's end and the next shift's
     start is below the minimum rest. Below the severe threshold (or an
     overlap) the violation is severe.
  2. CONSECUTIVE_DAYS - a run of worked dates longer than the maximum.
     Exceeding it by two or more days is severe.

RISK LEVEL:
  The evaluation window is the WindowDays ending at the latest shift end.

    HIGH    a violation inside the window, and either a severe one or
            at least two of them
    MEDIUM  any violation anywhere in the history
    LOW     otherwise

SEE ALSO:
  - engine.go: AssessFatigueRisk and the audit fan-out
  - audit.go: fatigue_exposure check
*/
package award

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type FatigueConfig struct {
	MinRestHours       decimal.Decimal `json:"min_rest_hours"`
	SevereRestHours    decimal.Decimal `json:"severe_rest_hours"`
	MaxConsecutiveDays int             `json:"max_consecutive_days"`
	WindowDays         int             `json:"window_days"`
}

func DefaultFatigueConfig() FatigueConfig {
	return FatigueConfig{
		MinRestHours:       decimal.NewFromInt(10),
		SevereRestHours:    decimal.NewFromInt(8),
		MaxConsecutiveDays: 6,
		WindowDays:         7,
	}
}

func (c FatigueConfig) Validate() error {
	switch {
	case !c.MinRestHours.IsPositive():
		return configErr("fatigue.min_rest_hours", "must be positive")
	case c.SevereRestHours.IsNegative() || c.SevereRestHours.GreaterThan(c.MinRestHours):
		return configErr("fatigue.severe_rest_hours", "must be between 0 and min_rest_hours")
	case c.MaxConsecutiveDays < 1:
		return configErr("fatigue.max_consecutive_days", "must be at least 1")
	case c.WindowDays < 1:
		return configErr("fatigue.window_days", "must be at least 1")
	}
	return nil
}

// ShiftGapResult describes the rest between two adjacent shifts.
type ShiftGapResult struct {
	FromShiftID      string          `json:"from_shift_id"`
	ToShiftID        string          `json:"to_shift_id"`
	GapMinutes       int64           `json:"gap_minutes"`
	GapHours         decimal.Decimal `json:"gap_hours"`
	MeetsMinimumRest bool            `json:"meets_minimum_rest"`
}

type ViolationKind string

const (
	ViolationShortRest       ViolationKind = "SHORT_REST"
	ViolationConsecutiveDays ViolationKind = "CONSECUTIVE_DAYS"
)

type FatigueViolation struct {
	Kind     ViolationKind `json:"kind"`
	Severe   bool          `json:"severe"`
	At       time.Time     `json:"at"`
	InWindow bool          `json:"in_window"`
	ShiftIDs []string      `json:"shift_ids"`
	Detail   string        `json:"detail"`
}

type FatigueAssessment struct {
	EmployeeID             string             `json:"employee_id"`
	RiskLevel              RiskLevel          `json:"risk_level"`
	ContributingShiftIDs   []string           `json:"contributing_shift_ids"`
	Gaps                   []ShiftGapResult   `json:"gaps"`
	Violations             []FatigueViolation `json:"violations"`
	LongestConsecutiveDays int                `json:"longest_consecutive_days"`
	WindowStart            time.Time          `json:"window_start"`
	WindowEnd              time.Time          `json:"window_end"`
}

type FatigueRiskAssessor struct {
	cfg FatigueConfig
}

func NewFatigueRiskAssessor(cfg FatigueConfig) *FatigueRiskAssessor {
	return &FatigueRiskAssessor{cfg: cfg}
}

type placedShift struct {
	id         string
	date       Date
	start, end time.Time
}

// Assess scores a single employee's shifts. Order of the input does not
// matter; shifts of different employees are rejected.
func (a *FatigueRiskAssessor) Assess(shifts []RosterShift) (FatigueAssessment, error) {
	out := FatigueAssessment{
		RiskLevel:            RiskLow,
		ContributingShiftIDs: []string{},
		Gaps:                 []ShiftGapResult{},
		Violations:           []FatigueViolation{},
	}
	if len(shifts) == 0 {
		return out, nil
	}

	out.EmployeeID = shifts[0].EmployeeID
	placed := make([]placedShift, 0, len(shifts))
	for _, s := range shifts {
		if s.EmployeeID != out.EmployeeID {
			return FatigueAssessment{}, fmt.Errorf("%w: %q and %q", ErrMixedEmployees, out.EmployeeID, s.EmployeeID)
		}
		start, end := ShiftBounds(s)
		placed = append(placed, placedShift{id: s.ID, date: s.Date, start: start, end: end})
	}
	sort.SliceStable(placed, func(i, j int) bool {
		if !placed[i].start.Equal(placed[j].start) {
			return placed[i].start.Before(placed[j].start)
		}
		return placed[i].id < placed[j].id
	})

	out.WindowEnd = placed[0].end
	for _, p := range placed[1:] {
		if p.end.After(out.WindowEnd) {
			out.WindowEnd = p.end
		}
	}
	out.WindowStart = out.WindowEnd.AddDate(0, 0, -a.cfg.WindowDays)

	minRest := hoursToMinutes(a.cfg.MinRestHours)
	severeRest := hoursToMinutes(a.cfg.SevereRestHours)
	for i := 1; i < len(placed); i++ {
		prev, next := placed[i-1], placed[i]
		gap := int64(next.start.Sub(prev.end) / time.Minute)
		out.Gaps = append(out.Gaps, ShiftGapResult{
			FromShiftID:      prev.id,
			ToShiftID:        next.id,
			GapMinutes:       gap,
			GapHours:         minutesToHours(gap),
			MeetsMinimumRest: gap >= minRest,
		})
		if gap >= minRest {
			continue
		}
		out.Violations = append(out.Violations, FatigueViolation{
			Kind:     ViolationShortRest,
			Severe:   gap < severeRest,
			At:       next.start,
			ShiftIDs: []string{prev.id, next.id},
			Detail:   fmt.Sprintf("%s rest between %s and %s, minimum %s", minutesToHours(gap), prev.id, next.id, a.cfg.MinRestHours),
		})
	}

	runs := consecutiveRuns(placed)
	for _, run := range runs {
		if len(run.dates) > out.LongestConsecutiveDays {
			out.LongestConsecutiveDays = len(run.dates)
		}
		if len(run.dates) <= a.cfg.MaxConsecutiveDays {
			continue
		}
		out.Violations = append(out.Violations, FatigueViolation{
			Kind:     ViolationConsecutiveDays,
			Severe:   len(run.dates) >= a.cfg.MaxConsecutiveDays+2,
			At:       run.lastEnd,
			ShiftIDs: run.shiftIDs,
			Detail:   fmt.Sprintf("%d consecutive days worked from %s, maximum %d", len(run.dates), run.dates[0], a.cfg.MaxConsecutiveDays),
		})
	}

	sort.SliceStable(out.Violations, func(i, j int) bool { return out.Violations[i].At.Before(out.Violations[j].At) })

	inWindow, severeInWindow := 0, false
	for i := range out.Violations {
		v := &out.Violations[i]
		v.InWindow = !v.At.Before(out.WindowStart)
		if v.InWindow {
			inWindow++
			severeInWindow = severeInWindow || v.Severe
		}
	}
	switch {
	case inWindow > 0 && (severeInWindow || inWindow >= 2):
		out.RiskLevel = RiskHigh
	case len(out.Violations) > 0:
		out.RiskLevel = RiskMedium
	}

	out.ContributingShiftIDs = contributingShifts(placed, out.Violations)
	return out, nil
}

type dayRun struct {
	dates    []Date
	shiftIDs []string
	lastEnd  time.Time
}

// consecutiveRuns groups shifts by start date into runs of adjacent dates.
func consecutiveRuns(placed []placedShift) []dayRun {
	var runs []dayRun
	for _, p := range placed {
		if len(runs) > 0 {
			cur := &runs[len(runs)-1]
			last := cur.dates[len(cur.dates)-1]
			switch {
			case p.date == last:
				cur.shiftIDs = append(cur.shiftIDs, p.id)
				if p.end.After(cur.lastEnd) {
					cur.lastEnd = p.end
				}
				continue
			case p.date == last.AddDays(1):
				cur.dates = append(cur.dates, p.date)
				cur.shiftIDs = append(cur.shiftIDs, p.id)
				if p.end.After(cur.lastEnd) {
					cur.lastEnd = p.end
				}
				continue
			}
		}
		runs = append(runs, dayRun{dates: []Date{p.date}, shiftIDs: []string{p.id}, lastEnd: p.end})
	}
	return runs
}

// contributingShifts lists violation evidence in chronological order,
// without duplicates.
func contributingShifts(placed []placedShift, violations []FatigueViolation) []string {
	flagged := make(map[string]bool)
	for _, v := range violations {
		for _, id := range v.ShiftIDs {
			flagged[id] = true
		}
	}
	out := []string{}
	for _, p := range placed {
		if flagged[p.id] {
			out = append(out, p.id)
			delete(flagged, p.id)
		}
	}
	return out
}
