package domain

import "time"

// Weekday codes as persisted: Monday=2 .. Saturday=7, Sunday=8.
// This is the wire/storage convention; never compare against Go's
// time.Weekday numbering directly.
const (
	WeekdayMonday    = 2
	WeekdayTuesday   = 3
	WeekdayWednesday = 4
	WeekdayThursday  = 5
	WeekdayFriday    = 6
	WeekdaySaturday  = 7
	WeekdaySunday    = 8
)

var weekdayCodes = map[time.Weekday]int{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

var weekdayLabels = map[int]string{
	WeekdayMonday:    "Monday",
	WeekdayTuesday:   "Tuesday",
	WeekdayWednesday: "Wednesday",
	WeekdayThursday:  "Thursday",
	WeekdayFriday:    "Friday",
	WeekdaySaturday:  "Saturday",
	WeekdaySunday:    "Sunday",
}

// WeekdayCode maps a calendar date to the persisted weekday code.
func WeekdayCode(d time.Time) int {
	return weekdayCodes[d.Weekday()]
}

// WeekdayLabel returns the display name for a weekday code, or "" if the
// code is outside 2..8.
func WeekdayLabel(code int) string {
	return weekdayLabels[code]
}

// ValidWeekdayCode reports whether code is in the persisted 2..8 range.
func ValidWeekdayCode(code int) bool {
	_, ok := weekdayLabels[code]
	return ok
}
