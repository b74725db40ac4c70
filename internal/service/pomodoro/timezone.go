package pomodoro

import "time"

// dayStart returns the start of the current day in tz, converted to UTC.
func dayStart(now time.Time, tz *time.Location) time.Time {
	userNow := now.In(tz)
	return time.Date(userNow.Year(), userNow.Month(), userNow.Day(), 0, 0, 0, 0, tz).UTC()
}

// parseTimezone parses a timezone name, returning UTC as fallback.
func parseTimezone(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
