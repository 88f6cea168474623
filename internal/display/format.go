package display

import (
	"fmt"
	"strconv"
	"time"
)

// CompactCount abbreviates a view count for display. Values below one
// thousand render verbatim; thousands and millions are shortened with one
// decimal place and a K or M suffix.
func CompactCount(views int64) string {
	switch {
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	default:
		return strconv.FormatInt(views, 10)
	}
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerMonth  = 30 * secondsPerDay
	secondsPerYear   = 365 * secondsPerDay
)

// RelativeTime renders a Unix-seconds timestamp relative to now, e.g.
// "just now", "5 minutes ago", "1 year ago". Future timestamps clamp to
// "just now".
func RelativeTime(unixSeconds int64, now time.Time) string {
	diff := now.Unix() - unixSeconds
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < secondsPerMinute:
		return "just now"
	case diff < secondsPerHour:
		return pluralize(diff/secondsPerMinute, "minute")
	case diff < secondsPerDay:
		return pluralize(diff/secondsPerHour, "hour")
	case diff < secondsPerMonth:
		return pluralize(diff/secondsPerDay, "day")
	case diff < secondsPerYear:
		return pluralize(diff/secondsPerMonth, "month")
	default:
		return pluralize(diff/secondsPerYear, "year")
	}
}

func pluralize(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
