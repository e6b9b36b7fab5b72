package domain

import "time"

// AlignPeriodStart truncates t to the first instant of its calendar period
// in UTC: the 1st 00:00 for monthly, ISO Monday 00:00 for weekly.
func AlignPeriodStart(t time.Time, periodType PeriodType) time.Time {
	t = t.UTC()
	switch periodType {
	case PeriodTypeWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// NextPeriodStart returns the exclusive end of the period beginning at start.
func NextPeriodStart(start time.Time, periodType PeriodType) time.Time {
	if periodType == PeriodTypeWeekly {
		return start.AddDate(0, 0, 7)
	}
	return start.AddDate(0, 1, 0)
}

// MonthStart returns the first instant of (year, month) in UTC.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}
