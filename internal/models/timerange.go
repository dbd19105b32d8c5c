package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by Google Ads segments.date.
const DateLayout = "2006-01-02"

var ErrUnknownTimeRange = errors.New("unknown time range")

// TimeRange is a rolling lookback window ending today.
type TimeRange string

const (
	TimeRange30d TimeRange = "30d"
	TimeRange14d TimeRange = "14d"
	TimeRange7d  TimeRange = "7d"
	TimeRange3d  TimeRange = "3d"
	TimeRange24h TimeRange = "24h"
)

// TimeRanges lists every time range in display order.
var TimeRanges = []TimeRange{TimeRange30d, TimeRange14d, TimeRange7d, TimeRange3d, TimeRange24h}

// Days returns the number of calendar days the window covers, ending today.
// 24h is today only, so its values stay partial until the day ends because
// Google Ads reports the current day incrementally.
func (t TimeRange) Days() int {
	switch t {
	case TimeRange30d:
		return 30
	case TimeRange14d:
		return 14
	case TimeRange7d:
		return 7
	case TimeRange3d:
		return 3
	case TimeRange24h:
		return 1
	}
	return 0
}

func (t TimeRange) Valid() bool { return t.Days() > 0 }

func ParseTimeRange(s string) (TimeRange, error) {
	t := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeRange, s)
	}
	return t, nil
}

// DateRange returns the window of t.Days() calendar days ending on today,
// inclusive on both ends.
func (t TimeRange) DateRange(today time.Time) DateRange {
	end := Day(today)
	return DateRange{Start: end.AddDate(0, 0, -(t.Days() - 1)), End: end}
}

// Day truncates t to its calendar day, keeping the year/month/day as seen in
// t's own location, and returns it at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both bounds to calendar days.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return NewDateRange(s, e), nil
}

// Days returns the inclusive number of calendar days, 0 for an inverted range.
func (d DateRange) Days() int {
	if d.End.Before(d.Start) {
		return 0
	}
	return int(Day(d.End).Sub(Day(d.Start)).Hours()/24) + 1
}

// Dates enumerates every calendar day in the range in order.
func (d DateRange) Dates() []time.Time {
	n := d.Days()
	out := make([]time.Time, 0, n)
	start := Day(d.Start)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// Previous returns the window of identical length ending the day before d starts.
func (d DateRange) Previous() DateRange {
	n := d.Days()
	end := Day(d.Start).AddDate(0, 0, -1)
	return DateRange{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Contains reports whether day falls within the range.
func (d DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(Day(d.Start)) && !day.After(Day(d.End))
}

func (d DateRange) StartDate() string { return d.Start.Format(DateLayout) }
func (d DateRange) EndDate() string   { return d.End.Format(DateLayout) }

func (d DateRange) String() string { return d.StartDate() + ".." + d.EndDate() }
