// Package timezone provides timezone and date-key utilities for the quizdeck server.
//
// A date key is a calendar-day identifier ("2006-01-02") relative to a given
// timezone. Daily quizzes are published per date key, so callers in different
// timezones may legitimately see different keys at the same instant.
package timezone

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical format of a date key.
const DateKeyLayout = "2006-01-02"

// UTC is the coordinated universal time timezone.
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	if tz == "" || tz == "UTC" {
		return true
	}

	_, err := time.LoadLocation(tz)
	return err == nil
}

// DateKey returns the calendar-day key of t in the given timezone.
func DateKey(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format(DateKeyLayout)
}

// ParseDateKey parses a date key back into the midnight instant of that day
// in the given timezone.
func ParseDateKey(key string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = UTC
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// IsValidDateKey checks if key is a well-formed date key.
func IsValidDateKey(key string) bool {
	_, err := time.Parse(DateKeyLayout, key)
	return err == nil
}

// PreviousDateKeys returns the n date keys immediately preceding key, most
// recent first. An unparsable key yields nil.
func PreviousDateKeys(key string, n int) []string {
	day, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		keys = append(keys, day.AddDate(0, 0, -i).Format(DateKeyLayout))
	}
	return keys
}

// DayDiff returns the number of calendar days from keyA to keyB (keyB - keyA).
// Both keys must be well formed; malformed input yields 0.
func DayDiff(keyA, keyB string) int {
	a, errA := time.Parse(DateKeyLayout, keyA)
	b, errB := time.Parse(DateKeyLayout, keyB)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// StartOfDay returns the start of the day (00:00:00) of t in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}

// NowInTimezone returns the current time in the given timezone.
func NowInTimezone(tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Now().In(tz)
}
