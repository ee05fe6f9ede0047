package util

import (
	"time"
)

func AddTimeToDate(date time.Time, sourceTime time.Time) time.Time {
	newDateTime := time.Date(date.Year(), date.Month(), date.Day(), sourceTime.Hour(), sourceTime.Minute(), sourceTime.Second(), sourceTime.Nanosecond(), date.Location())

	return newDateTime
}

// ClosestDateForTime puts a time of day on the date of now. If the result is further than
// lookBehind in the past it is moved to the next day, if it is further than lookAhead in
// the future it is moved to the previous day.
func ClosestDateForTime(now time.Time, sourceTime time.Time, lookBehind time.Duration, lookAhead time.Duration) time.Time {
	dateTime := AddTimeToDate(now, sourceTime)

	if dateTime.Before(now.Add(-lookBehind)) {
		dateTime = dateTime.AddDate(0, 0, 1)
	} else if dateTime.After(now.Add(lookAhead)) {
		dateTime = dateTime.AddDate(0, 0, -1)
	}

	return dateTime
}
