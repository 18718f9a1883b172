/*
roster.go - Employee, shift and holiday documents

PURPOSE:
  Collaborator data (staff profiles, worked shifts, the public holiday
  calendar) arrives as JSON from the HTTP API or as JSON/YAML files for
  the CLI. These documents use plain strings for dates and clock times
  and convert to award values on demand.

SCHEMA:
  region: VIC
  holidays:
    - {id: ph-xmas, name: Christmas Day, date: "2025-12-25", recurring: true}
  employees:
    - {id: emp-1, classification: FB_GRADE_2, employment_type: full_time,
       super_fund_name: AustralianSuper}
  shifts:
    - id: s1
      employee_id: emp-1
      date: "2025-08-01"
      start_time: "17:00"
      end_time: "01:00"
      breaks:
        - {event_type: BREAK_START, event_time: "21:00", break_type: MEAL_UNPAID}
        - {event_type: BREAK_END, event_time: "21:30", break_type: MEAL_UNPAID}

SEE ALSO:
  - factory/rates.go: Rate documents and DecodeFile
  - award/types.go: EmployeeProfile, RosterShift
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/award-engine/award"
)

// RosterDocument bundles everything an audit needs.
type RosterDocument struct {
	Region    string        `json:"region,omitempty" yaml:"region,omitempty"`
	Holidays  []HolidayDoc  `json:"holidays,omitempty" yaml:"holidays,omitempty"`
	Employees []EmployeeDoc `json:"employees" yaml:"employees"`
	Shifts    []ShiftDoc    `json:"shifts" yaml:"shifts"`
}

type HolidayDoc struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Name      string `json:"name" yaml:"name"`
	Date      string `json:"date" yaml:"date"`
	Recurring bool   `json:"recurring,omitempty" yaml:"recurring,omitempty"`
}

type EmployeeDoc struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Classification string   `json:"classification" yaml:"classification"`
	EmploymentType string   `json:"employment_type" yaml:"employment_type"`
	SuperFundName  string   `json:"super_fund_name,omitempty" yaml:"super_fund_name,omitempty"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type ShiftDoc struct {
	ID         string     `json:"id" yaml:"id"`
	EmployeeID string     `json:"employee_id" yaml:"employee_id"`
	Date       string     `json:"date" yaml:"date"`
	StartTime  string     `json:"start_time" yaml:"start_time"`
	EndTime    string     `json:"end_time" yaml:"end_time"`
	Breaks     []BreakDoc `json:"breaks,omitempty" yaml:"breaks,omitempty"`
	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type BreakDoc struct {
	EventType string `json:"event_type" yaml:"event_type"`
	EventTime string `json:"event_time" yaml:"event_time"`
	BreakType string `json:"break_type" yaml:"break_type"`
}

// Roster is a converted RosterDocument.
type Roster struct {
	Region    string
	Holidays  []award.PublicHoliday
	Employees []award.EmployeeProfile
	Shifts    []award.RosterShift
}

// Calendar returns the roster's holidays as a calendar.
func (r Roster) Calendar() *award.StaticCalendar {
	return award.NewStaticCalendar(r.Holidays...)
}

// =============================================================================
// PARSING
// =============================================================================

func ParseRosterJSON(data []byte) (Roster, error) {
	var doc RosterDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Roster{}, fmt.Errorf("failed to parse roster JSON: %w", err)
	}
	return doc.Roster()
}

func ParseRosterYAML(data []byte) (Roster, error) {
	var doc RosterDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Roster{}, fmt.Errorf("failed to parse roster YAML: %w", err)
	}
	return doc.Roster()
}

// ParseRosterFile reads a roster document, choosing YAML or JSON by extension.
func ParseRosterFile(path string) (Roster, error) {
	var doc RosterDocument
	if err := DecodeFile(path, &doc); err != nil {
		return Roster{}, err
	}
	return doc.Roster()
}

// Roster converts every entry, stopping at the first malformed one.
func (d RosterDocument) Roster() (Roster, error) {
	r := Roster{Region: d.Region}
	for i, hd := range d.Holidays {
		h, err := hd.Holiday(d.Region)
		if err != nil {
			return Roster{}, fmt.Errorf("holidays[%d]: %w", i, err)
		}
		r.Holidays = append(r.Holidays, h)
	}
	for i, ed := range d.Employees {
		e, err := ed.Profile()
		if err != nil {
			return Roster{}, fmt.Errorf("employees[%d]: %w", i, err)
		}
		r.Employees = append(r.Employees, e)
	}
	for i, sd := range d.Shifts {
		s, err := sd.Shift()
		if err != nil {
			return Roster{}, fmt.Errorf("shifts[%d]: %w", i, err)
		}
		r.Shifts = append(r.Shifts, s)
	}
	return r, nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// Profile converts an employee document. Employment types are
// case-insensitive and accept "full-time" style spellings.
func (d EmployeeDoc) Profile() (award.EmployeeProfile, error) {
	if strings.TrimSpace(d.ID) == "" {
		return award.EmployeeProfile{}, fmt.Errorf("employee id is required")
	}
	et := award.EmploymentType(strings.ReplaceAll(enum(d.EmploymentType), "-", "_"))
	if !et.Valid() {
		return award.EmployeeProfile{}, fmt.Errorf("employee %s: %w: %q", d.ID, award.ErrInvalidEmploymentType, d.EmploymentType)
	}
	return award.EmployeeProfile{
		ID:             strings.TrimSpace(d.ID),
		Name:           d.Name,
		Classification: award.Classification(strings.TrimSpace(d.Classification)),
		EmploymentType: et,
		SuperFundName:  d.SuperFundName,
		Tags:           d.Tags,
	}, nil
}

// Shift converts a shift document. An end time of "24:00" is treated as
// midnight at the end of the shift date.
func (d ShiftDoc) Shift() (award.RosterShift, error) {
	s := award.RosterShift{ID: d.ID, EmployeeID: d.EmployeeID, Tags: d.Tags}

	date, err := award.ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return s, &award.InvalidShiftError{ShiftID: d.ID, Reason: err.Error()}
	}
	s.Date = date
	if s.StartTime, err = shiftClock(d.StartTime); err != nil {
		return s, &award.InvalidShiftError{ShiftID: d.ID, Reason: "start_time: " + err.Error()}
	}
	if s.EndTime, err = shiftClock(d.EndTime); err != nil {
		return s, &award.InvalidShiftError{ShiftID: d.ID, Reason: "end_time: " + err.Error()}
	}

	for i, bd := range d.Breaks {
		at, err := shiftClock(bd.EventTime)
		if err != nil {
			return s, &award.InvalidShiftError{ShiftID: d.ID, Reason: fmt.Sprintf("breaks[%d]: %v", i, err)}
		}
		s.Breaks = append(s.Breaks, award.BreakEvent{
			EventType: award.BreakEventType(enum(bd.EventType)),
			EventTime: at,
			BreakType: award.BreakType(enum(bd.BreakType)),
		})
	}
	return s, s.Validate()
}

func (d HolidayDoc) Holiday(defaultRegion string) (award.PublicHoliday, error) {
	date, err := award.ParseDate(strings.TrimSpace(d.Date))
	if err != nil {
		return award.PublicHoliday{}, fmt.Errorf("holiday %q: %w", d.Name, err)
	}
	region := d.Region
	if region == "" {
		region = defaultRegion
	}
	return award.PublicHoliday{ID: d.ID, Region: region, Name: d.Name, Date: date, Recurring: d.Recurring}, nil
}

func EmployeeDocFrom(e award.EmployeeProfile) EmployeeDoc {
	return EmployeeDoc{
		ID:             e.ID,
		Name:           e.Name,
		Classification: string(e.Classification),
		EmploymentType: string(e.EmploymentType),
		SuperFundName:  e.SuperFundName,
		Tags:           e.Tags,
	}
}

func ShiftDocFrom(s award.RosterShift) ShiftDoc {
	d := ShiftDoc{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		Date:       s.Date.String(),
		StartTime:  s.StartTime.String(),
		EndTime:    s.EndTime.String(),
		Tags:       s.Tags,
	}
	for _, b := range s.Breaks {
		d.Breaks = append(d.Breaks, BreakDoc{
			EventType: string(b.EventType),
			EventTime: b.EventTime.String(),
			BreakType: string(b.BreakType),
		})
	}
	return d
}

func HolidayDocFrom(h award.PublicHoliday) HolidayDoc {
	return HolidayDoc{ID: h.ID, Region: h.Region, Name: h.Name, Date: h.Date.String(), Recurring: h.Recurring}
}

func shiftClock(s string) (award.ClockTime, error) {
	c, err := award.ParseClockTime(s)
	if err != nil {
		return 0, err
	}
	return c % award.MinutesPerDay, nil
}
