/*
segment.go - Day type resolution and shift segmentation

PURPOSE:
  Turns a RosterShift into ordered, non-overlapping TimeSegments that
  each carry a single day type, so every rule can be evaluated against
  one segment at a time.

ALGORITHM:
  1. Normalise: end before start means the shift finishes the next day.
  2. Place break events (times before the start clock belong to the next
     day), sort them and pair BREAK_START with the following BREAK_END.
  3. Subtract MEAL_UNPAID intervals from the shift to get paid intervals.
  4. Cut each paid interval at midnights where the day type changes and
     at every rule window boundary.

  The union of segments equals the paid time exactly. Anything odd about
  the breaks becomes a DataQualityWarning, never a silent correction.

SEE ALSO:
  - resolve.go: Prices each segment
  - ratetable.go: Supplies window boundaries
*/
package award

import (
	"sort"
	"time"
)

// =============================================================================
// DAY TYPE RESOLVER
// =============================================================================

// DayTypeResolver classifies a date. Public holidays win over weekends.
type DayTypeResolver struct {
	calendar HolidayCalendar
}

func NewDayTypeResolver(calendar HolidayCalendar) *DayTypeResolver {
	if calendar == nil {
		calendar = NoHolidays{}
	}
	return &DayTypeResolver{calendar: calendar}
}

func (r *DayTypeResolver) Resolve(d Date) DayType {
	if r.calendar.IsPublicHoliday(d) {
		return DayPublicHoliday
	}
	switch d.Weekday() {
	case time.Sunday:
		return DaySunday
	case time.Saturday:
		return DaySaturday
	default:
		return DayWeekday
	}
}

// =============================================================================
// SEGMENTS
// =============================================================================

// Interval is a half-open span of wall-clock time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Minutes() int64 { return int64(i.End.Sub(i.Start) / time.Minute) }

// TimeSegment is a slice of paid time with a single day type. Date is the
// calendar date the segment starts on.
type TimeSegment struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Date    Date      `json:"date"`
	DayType DayType   `json:"day_type"`
}

func (s TimeSegment) Minutes() int64        { return int64(s.End.Sub(s.Start) / time.Minute) }
func (s TimeSegment) StartClock() ClockTime { return ClockOf(s.Start) }

// Segmentation is the full result of segmenting one shift.
type Segmentation struct {
	ShiftID       string               `json:"shift_id"`
	Start         time.Time            `json:"start"`
	End           time.Time            `json:"end"`
	PaidIntervals []Interval           `json:"paid_intervals"`
	UnpaidBreaks  []Interval           `json:"unpaid_breaks,omitempty"`
	Segments      []TimeSegment        `json:"segments"`
	IsSplit       bool                 `json:"is_split"`
	Warnings      []DataQualityWarning `json:"warnings,omitempty"`
}

func (s Segmentation) PaidMinutes() int64 {
	var total int64
	for _, seg := range s.Segments {
		total += seg.Minutes()
	}
	return total
}

// =============================================================================
// SHIFT SEGMENTER
// =============================================================================

type ShiftSegmenter struct {
	resolver   *DayTypeResolver
	boundaries []ClockTime
	splitGap   time.Duration
}

// NewShiftSegmenter cuts segments at the given window boundaries. Paid
// intervals separated by at least splitGap make a split shift.
func NewShiftSegmenter(resolver *DayTypeResolver, boundaries []ClockTime, splitGap time.Duration) *ShiftSegmenter {
	if resolver == nil {
		resolver = NewDayTypeResolver(nil)
	}
	return &ShiftSegmenter{
		resolver:   resolver,
		boundaries: append([]ClockTime(nil), boundaries...),
		splitGap:   splitGap,
	}
}

// ShiftBounds returns the absolute start and end of a shift.
func ShiftBounds(shift RosterShift) (time.Time, time.Time) {
	start := shift.Date.At(shift.StartTime)
	end := shift.Date.At(shift.EndTime)
	if shift.EndTime < shift.StartTime {
		end = shift.Date.AddDays(1).At(shift.EndTime)
	}
	return start, end
}

func (s *ShiftSegmenter) Segment(shift RosterShift) Segmentation {
	start, end := ShiftBounds(shift)
	out := Segmentation{ShiftID: shift.ID, Start: start, End: end}

	if !end.After(start) {
		out.Warnings = append(out.Warnings,
			newWarning(shift.ID, WarnZeroLengthShift, "shift starts and ends at %s", shift.StartTime))
		return out
	}

	unpaid, warnings := pairBreaks(shift, start, end)
	out.UnpaidBreaks = unpaid
	out.Warnings = append(out.Warnings, warnings...)
	out.PaidIntervals = subtractIntervals(Interval{Start: start, End: end}, unpaid)
	out.IsSplit = s.isSplit(out.PaidIntervals)

	for _, iv := range out.PaidIntervals {
		out.Segments = append(out.Segments, s.cut(iv)...)
	}
	return out
}

func (s *ShiftSegmenter) isSplit(paid []Interval) bool {
	for i := 1; i < len(paid); i++ {
		if paid[i].Start.Sub(paid[i-1].End) >= s.splitGap {
			return true
		}
	}
	return false
}

func (s *ShiftSegmenter) cut(iv Interval) []TimeSegment {
	points := []time.Time{iv.Start, iv.End}
	last := DateOf(iv.End)
	for d := DateOf(iv.Start); !d.After(last); d = d.AddDays(1) {
		midnight := d.Time()
		if inside(midnight, iv) && s.resolver.Resolve(d.AddDays(-1)) != s.resolver.Resolve(d) {
			points = append(points, midnight)
		}
		for _, b := range s.boundaries {
			if at := d.At(b); inside(at, iv) {
				points = append(points, at)
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	segs := make([]TimeSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		if !to.After(from) {
			continue
		}
		date := DateOf(from)
		segs = append(segs, TimeSegment{Start: from, End: to, Date: date, DayType: s.resolver.Resolve(date)})
	}
	return segs
}

func inside(t time.Time, iv Interval) bool { return t.After(iv.Start) && t.Before(iv.End) }

// =============================================================================
// BREAKS
// =============================================================================

type placedBreak struct {
	at    time.Time
	event BreakEvent
}

// pairBreaks returns the merged unpaid intervals of a shift plus warnings
// for every irregular break record.
func pairBreaks(shift RosterShift, start, end time.Time) ([]Interval, []DataQualityWarning) {
	if len(shift.Breaks) == 0 {
		return nil, nil
	}

	events := make([]placedBreak, 0, len(shift.Breaks))
	for _, ev := range shift.Breaks {
		day := shift.Date
		if ev.EventTime < shift.StartTime {
			day = day.AddDays(1)
		}
		events = append(events, placedBreak{at: day.At(ev.EventTime), event: ev})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	var (
		unpaid   []Interval
		warnings []DataQualityWarning
		open     *placedBreak
	)
	for i := range events {
		ev := events[i]
		if ev.at.Before(start) || ev.at.After(end) {
			warnings = append(warnings, newWarning(shift.ID, WarnBreakOutsideShift,
				"%s at %s falls outside the shift; clipped", ev.event.EventType, ev.event.EventTime))
			ev.at = clampTime(ev.at, start, end)
		}

		switch ev.event.EventType {
		case BreakStart:
			if open != nil {
				warnings = append(warnings, newWarning(shift.ID, WarnNestedBreakStart,
					"BREAK_START at %s while the break from %s is still open; ignored", ev.event.EventTime, open.event.EventTime))
				continue
			}
			started := ev
			open = &started
		case BreakEnd:
			if open == nil {
				warnings = append(warnings, newWarning(shift.ID, WarnUnmatchedBreakEnd,
					"BREAK_END at %s has no matching BREAK_START; ignored", ev.event.EventTime))
				continue
			}
			if ev.event.BreakType != open.event.BreakType {
				warnings = append(warnings, newWarning(shift.ID, WarnBreakTypeMismatch,
					"break opened as %s closed as %s; treated as %s", open.event.BreakType, ev.event.BreakType, open.event.BreakType))
			}
			if open.event.BreakType == MealUnpaid && ev.at.After(open.at) {
				unpaid = append(unpaid, Interval{Start: open.at, End: ev.at})
			}
			open = nil
		}
	}

	if open != nil {
		warnings = append(warnings, newWarning(shift.ID, WarnUnmatchedBreakStart,
			"break started at %s has no BREAK_END; runs to shift end", open.event.EventTime))
		if open.event.BreakType == MealUnpaid && end.After(open.at) {
			unpaid = append(unpaid, Interval{Start: open.at, End: end})
		}
	}
	return mergeIntervals(unpaid), warnings
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func mergeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]Interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// subtractIntervals removes sorted, merged holes from whole.
func subtractIntervals(whole Interval, holes []Interval) []Interval {
	var out []Interval
	cursor := whole.Start
	for _, h := range holes {
		if h.Start.After(cursor) {
			out = append(out, Interval{Start: cursor, End: h.Start})
		}
		if h.End.After(cursor) {
			cursor = h.End
		}
	}
	if whole.End.After(cursor) {
		out = append(out, Interval{Start: cursor, End: whole.End})
	}
	return out
}
