package util

import (
	"strconv"
	"time"
)

const LinkedConnectionsTimeFormat = "2006-01-02T15:04:05.000Z"

// FloorTime truncates t in UTC to a multiple of granularity, a zero granularity only strips sub-second precision
func FloorTime(t time.Time, granularity time.Duration) time.Time {
	t = t.UTC()
	if granularity <= 0 {
		return t.Truncate(time.Second)
	}

	return t.Truncate(granularity)
}

func FormatLinkedConnectionsTime(t time.Time) string {
	return t.UTC().Format(LinkedConnectionsTimeFormat)
}

// ParseEpochString parses the unix timestamps the iRail API sends as strings
func ParseEpochString(value string) (time.Time, error) {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(seconds, 0).UTC(), nil
}
