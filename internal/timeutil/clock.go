package timeutil

import (
	"time"
)

// Local is the business time zone. Due dates and "today" are Prague
// calendar days.
var Local *time.Location

func init() {
	var err error
	Local, err = time.LoadLocation("Europe/Prague")
	if err != nil {
		// Fallback: fixed CET if tzdata is missing in the image
		Local = time.FixedZone("CET", 1*60*60)
	}
}

// Now returns the current time in the business zone
func Now() time.Time {
	return time.Now().In(Local)
}

// Date returns the calendar day of t (read in t's own location) as
// midnight UTC. All stored dates use this representation.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the business calendar day of now.
func Today(now time.Time) time.Time {
	return Date(now.In(Local))
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

const DateLayout = "2006-01-02"
