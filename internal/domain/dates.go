package domain

import "time"

// DateOnly returns the calendar date of t as midnight UTC.
// Schedules always carry dates in this form.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsDateBefore returns true if the calendar date of a is strictly before the one of b
func IsDateBefore(a, b time.Time) bool {
	return DateOnly(a).Before(DateOnly(b))
}

// IsSameDate returns true if a and b fall on the same calendar date
func IsSameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// MeetingEnd returns the wall-clock end of a meeting on date in loc
func MeetingEnd(date time.Time, endHour int, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, endHour, 0, 0, 0, loc)
}

// MeetingElapsed decides whether a meeting on date that ends at endHour:00 is over at now.
// date is a calendar date; now is already in the service time zone.
//
// A date strictly before today is over regardless of the hour. On today's date
// the meeting is over once now is after endHour:00.
func MeetingElapsed(date time.Time, endHour int, now time.Time) bool {
	if IsDateBefore(date, now) {
		return true
	}
	if !IsSameDate(date, now) {
		return false
	}
	return now.After(MeetingEnd(date, endHour, now.Location()))
}
