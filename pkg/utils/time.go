package utils

import (
	"time"
)

// SecsToTime converts an int64 of seconds from epoch to Time struct
func SecsToTime(ts int64) time.Time {
	return time.Unix(ts, 0)
}

// SecsToDuration converts a count of seconds to a Duration
func SecsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
