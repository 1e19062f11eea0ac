package points

import "time"

// DateFormat is the layout used for the week-start and daily award markers.
const DateFormat = "2006-01-02"

// WeekStart returns the Sunday 00:00:00 beginning the week that contains t,
// in t's location. Sunday is the first day of the bucket.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekBounds returns the half-open interval [start, end) covering the week
// that contains t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	start := WeekStart(t)
	return start, start.AddDate(0, 0, 7)
}
