package award

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Civil date, no time zone
// =============================================================================

// Date is a calendar date in the venue's local time.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate builds a normalised date (e.g. Feb 30 rolls into March).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns local midnight of the date. Instants are UTC-located wall
// clock values; the engine never performs DST arithmetic.
func (d Date) Time() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// At returns the instant of the given clock time on this date.
func (d Date) At(c ClockTime) time.Time { return d.Time().Add(time.Duration(c) * time.Minute) }

func (d Date) AddDays(n int) Date         { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday      { return d.Time().Weekday() }
func (d Date) Before(other Date) bool     { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool      { return d.Time().After(other.Time()) }
func (d Date) IsZero() bool               { return d == Date{} }
func (d Date) Equal(other Date) bool      { return d == other }
func (d Date) monthDay() monthDay         { return monthDay{d.Month, d.Day} }
func (d Date) Between(from, to Date) bool { return !d.Before(from) && !d.After(to) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DaysBetween returns the whole days from a to b (negative when b is earlier).
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()) / (24 * time.Hour))
}

// =============================================================================
// CLOCK TIME - Minutes since local midnight
// =============================================================================

type ClockTime int

const MinutesPerDay = 24 * 60

// Midnight at the end of the day. Only valid as a window end.
const EndOfDay ClockTime = MinutesPerDay

func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClockTime parses "HH:MM". "24:00" is accepted and yields EndOfDay.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock time %q: out of range", s)
	}
	return NewClockTime(h, m), nil
}

func ClockOf(t time.Time) ClockTime { return NewClockTime(t.Hour(), t.Minute()) }

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// Valid reports whether c is a time of day in [00:00, 24:00).
func (c ClockTime) Valid() bool { return c >= 0 && c < MinutesPerDay }

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute()) }

func (c ClockTime) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// =============================================================================
// TIME WINDOW - [start, end) in local clock time, may wrap midnight
// =============================================================================

type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func (w TimeWindow) Validate() error {
	if !w.Start.Valid() {
		return fmt.Errorf("window start %s out of range", w.Start)
	}
	if w.End < 0 || w.End > EndOfDay {
		return fmt.Errorf("window end %d out of range", int(w.End))
	}
	if w.Start == w.End || (w.End == EndOfDay && w.Start == 0) {
		return fmt.Errorf("window %s-%s is empty or covers the whole day", w.Start, w.End)
	}
	return nil
}

// Wraps reports whether the window crosses midnight, e.g. 22:00-06:00.
func (w TimeWindow) Wraps() bool { return w.End < w.Start }

// Contains reports whether clock time c falls inside [Start, End).
func (w TimeWindow) Contains(c ClockTime) bool {
	if !w.Wraps() {
		return c >= w.Start && c < w.End
	}
	return c >= w.Start || c < w.End
}

func (w TimeWindow) String() string { return w.Start.String() + "-" + w.End.String() }

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// HolidayCalendar answers public-holiday lookups. Implementations must be
// safe for concurrent reads.
type HolidayCalendar interface {
	IsPublicHoliday(date Date) bool
}

// NoHolidays is a calendar without public holidays.
type NoHolidays struct{}

func (NoHolidays) IsPublicHoliday(Date) bool { return false }

// PublicHoliday is a single calendar entry. Recurring entries match the same
// month and day every year.
type PublicHoliday struct {
	ID        string `json:"id"`
	Region    string `json:"region,omitempty"`
	Name      string `json:"name"`
	Date      Date   `json:"date"`
	Recurring bool   `json:"recurring"`
}

type monthDay struct {
	month time.Month
	day   int
}

// StaticCalendar is an immutable in-memory snapshot of holidays.
type StaticCalendar struct {
	fixed     map[Date]string
	recurring map[monthDay]string
	entries   []PublicHoliday
}

func NewStaticCalendar(holidays ...PublicHoliday) *StaticCalendar {
	c := &StaticCalendar{
		fixed:     make(map[Date]string),
		recurring: make(map[monthDay]string),
	}
	for _, h := range holidays {
		if h.Recurring {
			c.recurring[h.Date.monthDay()] = h.Name
		} else {
			c.fixed[h.Date] = h.Name
		}
		c.entries = append(c.entries, h)
	}
	sort.SliceStable(c.entries, func(i, j int) bool { return c.entries[i].Date.Before(c.entries[j].Date) })
	return c
}

func (c *StaticCalendar) IsPublicHoliday(date Date) bool {
	_, ok := c.HolidayName(date)
	return ok
}

// HolidayName returns the holiday's name when date is a public holiday.
func (c *StaticCalendar) HolidayName(date Date) (string, bool) {
	if c == nil {
		return "", false
	}
	if name, ok := c.fixed[date]; ok {
		return name, true
	}
	name, ok := c.recurring[date.monthDay()]
	return name, ok
}

// Holidays returns the calendar entries ordered by date.
func (c *StaticCalendar) Holidays() []PublicHoliday {
	if c == nil {
		return nil
	}
	out := make([]PublicHoliday, len(c.entries))
	copy(out, c.entries)
	return out
}
