package models

import (
	"fmt"
	"time"
)

// Timeframe selects the analytics window
type Timeframe string

const (
	TimeframeToday     Timeframe = "today"
	TimeframeYesterday Timeframe = "yesterday"
	TimeframeThisWeek  Timeframe = "this_week"
	TimeframeLastWeek  Timeframe = "last_week"
	TimeframeThisMonth Timeframe = "this_month"
	TimeframeLastMonth Timeframe = "last_month"
	TimeframeCustom    Timeframe = "custom"
)

// Valid reports whether the timeframe is a known value
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeToday, TimeframeYesterday, TimeframeThisWeek, TimeframeLastWeek,
		TimeframeThisMonth, TimeframeLastMonth, TimeframeCustom:
		return true
	}
	return false
}

// ResolvePeriod turns a timeframe into an explicit [start, end] range.
// Weeks start on Monday. Custom requires both start and end.
func ResolvePeriod(t Timeframe, now time.Time, start, end *time.Time) (Period, error) {
	if !t.Valid() {
		return Period{}, fmt.Errorf("unknown timeframe: %s", t)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch t {
	case TimeframeToday:
		return Period{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}, nil

	case TimeframeYesterday:
		return Period{Start: dayStart.AddDate(0, 0, -1), End: dayStart}, nil

	case TimeframeThisWeek:
		weekStart := dayStart.AddDate(0, 0, -mondayOffset(dayStart))
		return Period{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}, nil

	case TimeframeLastWeek:
		weekStart := dayStart.AddDate(0, 0, -mondayOffset(dayStart)-7)
		return Period{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}, nil

	case TimeframeThisMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Period{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}, nil

	case TimeframeLastMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Period{Start: monthStart.AddDate(0, -1, 0), End: monthStart}, nil

	case TimeframeCustom:
		if start == nil || end == nil {
			return Period{}, fmt.Errorf("custom timeframe requires explicit start and end")
		}
		if end.Before(*start) {
			return Period{}, fmt.Errorf("custom timeframe end precedes start")
		}
		return Period{Start: *start, End: *end}, nil
	}

	return Period{}, fmt.Errorf("unknown timeframe: %s", t)
}

// mondayOffset returns how many days back the most recent Monday is
func mondayOffset(day time.Time) int {
	wd := int(day.Weekday())
	if wd == 0 { // Sunday
		return 6
	}
	return wd - 1
}
